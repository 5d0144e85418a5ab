package diffdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const fileHeaderPrefix = "diff --git "

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// Options tunes ParseWithOptions.
type Options struct {
	// IntralineEmphasis attaches changed-character spans to paired
	// deletion/addition lines.
	IntralineEmphasis bool
}

// Parse converts unified-diff text into a Document. It never fails: text
// without any `diff --git` header becomes a single fallback section. CRLF
// line endings are accepted.
func Parse(text string) Document {
	return ParseWithOptions(text, Options{})
}

// ParseWithOptions is Parse with optional post-processing.
func ParseWithOptions(text string, opts Options) Document {
	if strings.TrimSpace(text) == "" {
		return Document{}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	var doc Document
	if starts := fileHeaderIndexes(lines); len(starts) == 0 {
		doc = fallbackDocument(lines)
	} else {
		for n, start := range starts {
			end := len(lines)
			if n+1 < len(starts) {
				end = starts[n+1]
			}
			doc.Sections = append(doc.Sections, parseSection(fmt.Sprintf("section-%d", n), lines[start:end]))
		}
	}
	if opts.IntralineEmphasis {
		AttachEmphasis(doc)
	}
	return doc
}

func fileHeaderIndexes(lines []string) []int {
	var idx []int
	for i, line := range lines {
		if strings.HasPrefix(line, fileHeaderPrefix) {
			idx = append(idx, i)
		}
	}
	return idx
}

type sectionMarkers struct {
	binary  bool
	newFile bool
	deleted bool
	renamed bool
	copied  bool
}

func parseSection(id string, run []string) FileSection {
	sec := FileSection{ID: id}
	sec.OldPath, sec.NewPath = headerPaths(strings.TrimPrefix(run[0], fileHeaderPrefix))

	var marks sectionMarkers
	i := 0
	for ; i < len(run); i++ {
		raw := run[i]
		if strings.HasPrefix(raw, "@@") {
			break
		}
		if i > 0 && raw == "" && onlyEmptyFrom(run, i) {
			break
		}
		kind := KindFileMeta
		switch {
		case i == 0:
			kind = KindFileHeader
		case strings.HasPrefix(raw, "--- "):
			kind = KindOldFilePath
			sec.OldPath = pathLineValue(raw[4:], "a/")
		case strings.HasPrefix(raw, "+++ "):
			kind = KindNewFilePath
			sec.NewPath = pathLineValue(raw[4:], "b/")
		case strings.HasPrefix(raw, "new file mode"):
			marks.newFile = true
		case strings.HasPrefix(raw, "deleted file mode"):
			marks.deleted = true
		case strings.HasPrefix(raw, "rename from "):
			marks.renamed = true
			sec.OldPath = plainPathValue(raw[len("rename from "):])
		case strings.HasPrefix(raw, "rename to "):
			marks.renamed = true
			sec.NewPath = plainPathValue(raw[len("rename to "):])
		case strings.HasPrefix(raw, "copy from "):
			marks.copied = true
			sec.OldPath = plainPathValue(raw[len("copy from "):])
		case strings.HasPrefix(raw, "copy to "):
			marks.copied = true
			sec.NewPath = plainPathValue(raw[len("copy to "):])
		case strings.HasPrefix(raw, "Binary files "), strings.HasPrefix(raw, "GIT binary patch"):
			marks.binary = true
		}
		sec.MetadataLines = append(sec.MetadataLines, Line{
			ID:       fmt.Sprintf("%s/meta-%d", id, i),
			Kind:     kind,
			RawText:  raw,
			CodeText: raw,
		})
	}

	for i < len(run) {
		if !strings.HasPrefix(run[i], "@@") {
			i++
			continue
		}
		var hunk Hunk
		hunk, i = parseHunk(fmt.Sprintf("%s/hunk-%d", id, len(sec.Hunks)), run, i)
		for _, l := range hunk.Lines {
			switch l.Kind {
			case KindAddition:
				sec.Additions++
			case KindDeletion:
				sec.Deletions++
			}
		}
		sec.Hunks = append(sec.Hunks, hunk)
	}

	sec.Status = inferStatus(sec, marks)
	if sec.Status != StatusBinary {
		sec.Language = languageFor(sec)
	}
	return sec
}

func inferStatus(sec FileSection, m sectionMarkers) Status {
	switch {
	case m.binary:
		return StatusBinary
	case m.newFile || sec.OldPath == devNull:
		return StatusAdded
	case m.deleted || sec.NewPath == devNull:
		return StatusDeleted
	case m.renamed:
		return StatusRenamed
	case m.copied:
		return StatusCopied
	case len(sec.Hunks) > 0:
		return StatusModified
	default:
		return StatusUnknown
	}
}

// parseHunkHeader parses "@@ -o[,oc] +n[,nc] @@[ section]". Omitted counts
// default to 1.
func parseHunkHeader(line string) (oldStart, oldCount, newStart, newCount int, ok bool) {
	m := hunkHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, 0, 0, false
	}
	atoi := func(s string, def int) int {
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return def
		}
		return n
	}
	return atoi(m[1], 0), atoi(m[2], 1), atoi(m[3], 0), atoi(m[4], 1), true
}

// parseHunk consumes the hunk starting at run[start] and returns the index
// of the first line after it.
func parseHunk(id string, run []string, start int) (Hunk, int) {
	header := run[start]
	hunk := Hunk{ID: id, HeaderText: header}
	oldStart, oldCount, newStart, newCount, bounded := parseHunkHeader(header)
	if bounded {
		hunk.OldStart, hunk.OldCount = oldStart, oldCount
		hunk.NewStart, hunk.NewCount = newStart, newCount
	}
	oldNo, newNo := hunk.OldStart, hunk.NewStart
	if !bounded {
		oldNo, newNo = 1, 1
	}
	oldLeft, newLeft := hunk.OldCount, hunk.NewCount

	i := start + 1
	for ; i < len(run); i++ {
		raw := run[i]
		if strings.HasPrefix(raw, "@@") {
			break
		}
		exhausted := bounded && oldLeft <= 0 && newLeft <= 0
		if raw == "" {
			if exhausted || (!bounded && onlyEmptyFrom(run, i)) {
				continue
			}
			raw = " "
		}
		line := Line{ID: fmt.Sprintf("%s/line-%d", id, len(hunk.Lines)), RawText: run[i], CodeText: raw[1:]}
		switch raw[0] {
		case '\\':
			line.Kind = KindNoNewlineMarker
			line.IsNoNewlineMarker = true
		case '+':
			if exhausted {
				continue
			}
			line.Kind = KindAddition
			line.NewLineNumber = newNo
			newNo++
			newLeft--
		case '-':
			if exhausted {
				continue
			}
			line.Kind = KindDeletion
			line.OldLineNumber = oldNo
			oldNo++
			oldLeft--
		case ' ':
			if exhausted {
				continue
			}
			line.Kind = KindContext
			line.OldLineNumber = oldNo
			line.NewLineNumber = newNo
			oldNo++
			newNo++
			oldLeft--
			newLeft--
		default:
			if exhausted {
				continue
			}
			line.Kind = KindContext
			line.CodeText = raw
			line.OldLineNumber = oldNo
			line.NewLineNumber = newNo
			oldNo++
			newNo++
			oldLeft--
			newLeft--
		}
		hunk.Lines = append(hunk.Lines, line)
	}
	return hunk, i
}

func onlyEmptyFrom(lines []string, i int) bool {
	for ; i < len(lines); i++ {
		if lines[i] != "" {
			return false
		}
	}
	return true
}
