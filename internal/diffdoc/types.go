// Package diffdoc turns unified-diff text into a structured document ready
// for rendering.
package diffdoc

import "fmt"

// Status classifies how a file changed.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusModified
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusCopied
	StatusBinary
)

var statusNames = [...]string{
	StatusUnknown:  "unknown",
	StatusModified: "modified",
	StatusAdded:    "added",
	StatusDeleted:  "deleted",
	StatusRenamed:  "renamed",
	StatusCopied:   "copied",
	StatusBinary:   "binary",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText renders the status name in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LineKind classifies a rendered line.
type LineKind uint8

const (
	KindContext LineKind = iota
	KindAddition
	KindDeletion
	KindNoNewlineMarker
	KindHunkHeader
	KindFileHeader
	KindFileMeta
	KindOldFilePath
	KindNewFilePath
)

var lineKindNames = [...]string{
	KindContext:         "context",
	KindAddition:        "addition",
	KindDeletion:        "deletion",
	KindNoNewlineMarker: "noNewlineMarker",
	KindHunkHeader:      "hunkHeader",
	KindFileHeader:      "fileHeader",
	KindFileMeta:        "fileMeta",
	KindOldFilePath:     "oldFilePath",
	KindNewFilePath:     "newFilePath",
}

func (k LineKind) String() string {
	if int(k) < len(lineKindNames) {
		return lineKindNames[k]
	}
	return fmt.Sprintf("LineKind(%d)", uint8(k))
}

// MarshalText renders the kind name in JSON and YAML output.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Document is an ordered list of file sections. An empty document means
// "no changes".
type Document struct {
	Sections []FileSection `json:"sections"`
}

// Empty reports whether the document has no sections.
func (d Document) Empty() bool {
	return len(d.Sections) == 0
}

// Totals sums additions and deletions across all sections.
func (d Document) Totals() (additions, deletions int) {
	for _, s := range d.Sections {
		additions += s.Additions
		deletions += s.Deletions
	}
	return additions, deletions
}

// FileSection is the part of a diff describing one file.
//
// Additions and Deletions always equal the number of addition and deletion
// lines across Hunks.
type FileSection struct {
	ID            string `json:"id"`
	OldPath       string `json:"oldPath"`
	NewPath       string `json:"newPath"`
	Status        Status `json:"status"`
	Additions     int    `json:"additions"`
	Deletions     int    `json:"deletions"`
	MetadataLines []Line `json:"metadataLines,omitempty"`
	Hunks         []Hunk `json:"hunks,omitempty"`
	// Language is the name of the syntax lexer matching the file, or empty.
	Language string `json:"language,omitempty"`
}

// DisplayPath is the path shown for the section: "old -> new" for renames
// and copies, the surviving path for additions and deletions.
func (s FileSection) DisplayPath() string {
	switch s.Status {
	case StatusRenamed, StatusCopied:
		if s.OldPath != "" && s.NewPath != "" && s.OldPath != s.NewPath {
			return s.OldPath + " -> " + s.NewPath
		}
	case StatusAdded:
		if s.NewPath != "" && s.NewPath != devNull {
			return s.NewPath
		}
	case StatusDeleted:
		if s.OldPath != "" && s.OldPath != devNull {
			return s.OldPath
		}
	}
	if s.NewPath != "" && s.NewPath != devNull {
		return s.NewPath
	}
	return s.OldPath
}

// Hunk is one "@@" block. Counts default to 1 when the header omits them.
type Hunk struct {
	ID         string `json:"id"`
	HeaderText string `json:"headerText"`
	OldStart   int    `json:"oldStart"`
	OldCount   int    `json:"oldCount"`
	NewStart   int    `json:"newStart"`
	NewCount   int    `json:"newCount"`
	Lines      []Line `json:"lines"`
}

// Line is one renderable line. Only context, addition and deletion lines
// carry line numbers; zero means absent.
type Line struct {
	ID                string     `json:"id"`
	Kind              LineKind   `json:"kind"`
	RawText           string     `json:"rawText"`
	CodeText          string     `json:"codeText"`
	OldLineNumber     int        `json:"oldLineNumber,omitempty"`
	NewLineNumber     int        `json:"newLineNumber,omitempty"`
	IsNoNewlineMarker bool       `json:"isNoNewlineMarker,omitempty"`
	EmphasisSpans     []TextSpan `json:"emphasisSpans,omitempty"`
}

// TextSpan is a half-open range of rune offsets into Line.CodeText.
type TextSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered.
func (s TextSpan) Len() int {
	return s.End - s.Start
}
