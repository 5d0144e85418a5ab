package diffdoc

const (
	maxEmphasisRunes      = 240
	maxEmphasisCells      = 40_000
	minEmphasisSimilarity = 0.35
)

// Emphasis computes the changed regions between a deleted line and the
// addition that replaced it, using a character-level longest common
// subsequence. ok is false when either text is longer than 240 runes, the
// DP table would exceed 40,000 cells, the texts are identical, or they share
// too little (similarity 2*lcs/(n+m) below 0.35) for spans to be useful.
func Emphasis(oldText, newText string) (oldSpans, newSpans []TextSpan, ok bool) {
	if oldText == newText {
		return nil, nil, false
	}
	a, b := []rune(oldText), []rune(newText)
	n, m := len(a), len(b)
	if n == 0 || m == 0 || n > maxEmphasisRunes || m > maxEmphasisRunes || n*m > maxEmphasisCells {
		return nil, nil, false
	}

	// table[i*(m+1)+j] is the LCS length of a[i:] and b[j:].
	width := m + 1
	table := make([]uint16, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i*width+j] = table[(i+1)*width+j+1] + 1
			} else {
				table[i*width+j] = max(table[(i+1)*width+j], table[i*width+j+1])
			}
		}
	}
	lcs := int(table[0])
	if float64(2*lcs)/float64(n+m) < minEmphasisSimilarity {
		return nil, nil, false
	}

	oldCommon := make([]bool, n)
	newCommon := make([]bool, m)
	for i, j := 0, 0; i < n && j < m; {
		switch {
		case a[i] == b[j]:
			oldCommon[i] = true
			newCommon[j] = true
			i++
			j++
		case table[(i+1)*width+j] >= table[i*width+j+1]:
			i++
		default:
			j++
		}
	}
	return changedSpans(oldCommon), changedSpans(newCommon), true
}

func changedSpans(common []bool) []TextSpan {
	var spans []TextSpan
	start := -1
	for i, c := range common {
		switch {
		case !c && start < 0:
			start = i
		case c && start >= 0:
			spans = append(spans, TextSpan{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, TextSpan{Start: start, End: len(common)})
	}
	return spans
}

// AttachEmphasis fills EmphasisSpans on paired deletion and addition lines
// of doc, in place. A run of deletions directly followed by a run of
// additions is paired line by line when the shorter run is at least half
// the length of the longer one.
func AttachEmphasis(doc Document) Document {
	for s := range doc.Sections {
		for h := range doc.Sections[s].Hunks {
			attachHunkEmphasis(doc.Sections[s].Hunks[h].Lines)
		}
	}
	return doc
}

func attachHunkEmphasis(lines []Line) {
	i := 0
	for i < len(lines) {
		if lines[i].Kind != KindDeletion {
			i++
			continue
		}
		dels, i2 := collectRun(lines, i, KindDeletion)
		adds, next := collectRun(lines, i2, KindAddition)
		i = next
		if len(adds) == 0 {
			continue
		}
		short, long := min(len(dels), len(adds)), max(len(dels), len(adds))
		if 2*short < long {
			continue
		}
		for k := 0; k < short; k++ {
			d, a := &lines[dels[k]], &lines[adds[k]]
			if oldSpans, newSpans, ok := Emphasis(d.CodeText, a.CodeText); ok {
				d.EmphasisSpans = oldSpans
				a.EmphasisSpans = newSpans
			}
		}
	}
}

// collectRun gathers indexes of consecutive lines of kind starting at i,
// stepping over no-newline markers. It returns the index after the run.
func collectRun(lines []Line, i int, kind LineKind) ([]int, int) {
	var idx []int
	for i < len(lines) {
		switch lines[i].Kind {
		case kind:
			idx = append(idx, i)
		case KindNoNewlineMarker:
		default:
			return idx, i
		}
		i++
	}
	return idx, i
}
