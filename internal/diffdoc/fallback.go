package diffdoc

import (
	"fmt"
	"strings"
)

// FallbackSectionID identifies the synthetic section built for text that has
// no `diff --git` header.
const FallbackSectionID = "fallback"

// fallbackDocument reclassifies every line by its leading character into a
// single synthetic hunk. A hunk header resets the counters to its starts.
func fallbackDocument(lines []string) Document {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	sec := FileSection{ID: FallbackSectionID, Status: StatusUnknown}
	hunk := Hunk{ID: FallbackSectionID + "/hunk-0", OldStart: 1, NewStart: 1}

	oldNo, newNo := 1, 1
	sawHeader := false
	for _, raw := range lines {
		line := Line{ID: fmt.Sprintf("%s/line-%d", hunk.ID, len(hunk.Lines)), RawText: raw, CodeText: raw}
		switch {
		case strings.HasPrefix(raw, "@@"):
			line.Kind = KindHunkHeader
			if oldStart, _, newStart, _, ok := parseHunkHeader(raw); ok {
				oldNo, newNo = max(oldStart, 1), max(newStart, 1)
				if !sawHeader {
					hunk.HeaderText = raw
					hunk.OldStart, hunk.NewStart = oldNo, newNo
				}
			}
			sawHeader = true
		case strings.HasPrefix(raw, "+"):
			line.Kind = KindAddition
			line.CodeText = raw[1:]
			line.NewLineNumber = newNo
			newNo++
			hunk.NewCount++
			sec.Additions++
		case strings.HasPrefix(raw, "-"):
			line.Kind = KindDeletion
			line.CodeText = raw[1:]
			line.OldLineNumber = oldNo
			oldNo++
			hunk.OldCount++
			sec.Deletions++
		case strings.HasPrefix(raw, `\`):
			line.Kind = KindNoNewlineMarker
			line.CodeText = raw[1:]
			line.IsNoNewlineMarker = true
		default:
			line.Kind = KindContext
			line.CodeText = strings.TrimPrefix(raw, " ")
			line.OldLineNumber = oldNo
			line.NewLineNumber = newNo
			oldNo++
			newNo++
			hunk.OldCount++
			hunk.NewCount++
		}
		hunk.Lines = append(hunk.Lines, line)
	}
	sec.Hunks = []Hunk{hunk}
	return Document{Sections: []FileSection{sec}}
}
