package git

import (
	"strconv"
	"strings"
)

// Numstat totals `git diff --numstat` output.
type Numstat struct {
	FilesChanged int
	Additions    int
	Deletions    int
}

// ParseNumstat counts one file per `<adds>\t<dels>\t<path>` line. Fields
// that are not numbers (binary files report "-") add nothing to the totals.
func ParseNumstat(out string) Numstat {
	var n Numstat
	for _, line := range TrimmedLines(out) {
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			continue
		}
		n.FilesChanged++
		if adds, err := strconv.Atoi(fields[0]); err == nil {
			n.Additions += adds
		}
		if dels, err := strconv.Atoi(fields[1]); err == nil {
			n.Deletions += dels
		}
	}
	return n
}
