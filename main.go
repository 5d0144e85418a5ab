package main

import (
	"log"

	"github.com/thiagokokada/wtdiff/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("wtdiff: %v", err)
	}
}
