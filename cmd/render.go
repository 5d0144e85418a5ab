package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/wtdiff/internal/diffdoc"
	"github.com/thiagokokada/wtdiff/internal/repo"
	"github.com/thiagokokada/wtdiff/internal/worktree"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseOutputFormat(raw string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return formatText, nil
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", raw)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through JSON so the json tags and MarshalText methods of
// the domain types decide the field names in both formats.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	resetStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}

// emit writes v in the selected format. text renders the human form.
func (a *app) emit(cmd *cobra.Command, v any, text func(*renderer) string) error {
	w := cmd.OutOrStdout()
	switch a.format {
	case formatJSON:
		return writeJSON(w, v)
	case formatYAML:
		return writeYAML(w, v)
	}
	r, err := a.newRenderer(w)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text(r))
	return err
}

type renderer struct {
	lg      *lipgloss.Renderer
	palette colorPalette
	syntax  bool
}

func (a *app) newRenderer(w io.Writer) (*renderer, error) {
	pref, err := parseThemePreference(a.theme)
	if err != nil {
		return nil, err
	}
	return newRenderer(w, paletteForPreference(pref), !a.noSyntax), nil
}

func newRenderer(w io.Writer, p colorPalette, syntax bool) *renderer {
	return &renderer{lg: lipgloss.NewRenderer(w), palette: p, syntax: syntax}
}

func (r *renderer) style() lipgloss.Style {
	return r.lg.NewStyle().TabWidth(lipgloss.NoTabConversion)
}

func (r *renderer) label(s string) string {
	return r.style().Bold(true).Render(s)
}

func (r *renderer) status(st repo.Status) string {
	var b strings.Builder
	switch {
	case st.IsRepository:
		fmt.Fprintf(&b, "%s %s\n", r.label("branch:"), st.BranchName)
	case st.DisabledReason == repo.ReasonFeatureDisabled:
		b.WriteString("disabled by configuration\n")
	default:
		b.WriteString("not a git repository\n")
	}
	return b.String()
}

func (r *renderer) summary(s repo.Summary) string {
	add := r.style().Foreground(r.palette.Clean).Render("+" + strconv.Itoa(s.Additions))
	del := r.style().Foreground(r.palette.Dirty).Render("-" + strconv.Itoa(s.Deletions))
	files := "files"
	if s.FilesChanged == 1 {
		files = "file"
	}
	return fmt.Sprintf("%s %s: %d %s changed, %s %s\n", r.label("branch"), s.BranchName, s.FilesChanged, files, add, del)
}

func (r *renderer) snapshot(snap repo.Snapshot, doc diffdoc.Document) string {
	return r.summary(snap.Summary) + r.document(doc)
}

func (r *renderer) document(doc diffdoc.Document) string {
	if doc.Empty() {
		return "no changes\n"
	}
	var b strings.Builder
	for i, sec := range doc.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		r.section(&b, sec)
	}
	return b.String()
}

func (r *renderer) section(b *strings.Builder, sec diffdoc.FileSection) {
	header := r.style().Bold(true).Foreground(r.palette.FileHeader).Render(sec.DisplayPath())
	fmt.Fprintf(b, "%s (%s, +%d -%d)\n", header, sec.Status, sec.Additions, sec.Deletions)

	meta := r.style().Faint(true)
	for _, line := range sec.MetadataLines {
		if line.Kind == diffdoc.KindFileHeader {
			continue
		}
		b.WriteString(meta.Render(line.RawText))
		b.WriteByte('\n')
	}

	var lexer chroma.Lexer
	if r.syntax && sec.Language != "" {
		if l := lexers.Get(sec.Language); l != nil {
			lexer = chroma.Coalesce(l)
		}
	}
	hunkHeader := r.style().Background(r.palette.DiffHeader)
	for _, h := range sec.Hunks {
		if h.HeaderText != "" && (len(h.Lines) == 0 || h.Lines[0].Kind != diffdoc.KindHunkHeader) {
			b.WriteString(hunkHeader.Render(h.HeaderText))
			b.WriteByte('\n')
		}
		for _, line := range h.Lines {
			switch line.Kind {
			case diffdoc.KindAddition, diffdoc.KindDeletion, diffdoc.KindContext:
				b.WriteString(r.gutter(line))
				b.WriteString(r.codeLine(lexer, line))
			case diffdoc.KindHunkHeader:
				b.WriteString(hunkHeader.Render(line.RawText))
			default:
				b.WriteString(meta.Render(line.RawText))
			}
			b.WriteByte('\n')
		}
	}
}

func (r *renderer) gutter(line diffdoc.Line) string {
	num := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	g := fmt.Sprintf("%5s %5s ", num(line.OldLineNumber), num(line.NewLineNumber))
	return r.style().Foreground(r.palette.LineNumber).Render(g)
}

type cell struct {
	fg, bg lipgloss.Color
}

// codeLine renders the sign and code of a line. Every rune gets the syntax
// colour of its token and the background of its kind, or the emphasis
// background inside an emphasis span; runes sharing both are rendered as
// one segment.
func (r *renderer) codeLine(lexer chroma.Lexer, line diffdoc.Line) string {
	base, _ := r.backgrounds(line.Kind)
	runes := []rune(line.CodeText)
	cells := r.cells(lexer, line)

	var b strings.Builder
	b.WriteString(r.paint(cell{bg: base}, sign(line.Kind)))
	for start := 0; start < len(cells); {
		end := start + 1
		for end < len(cells) && cells[end] == cells[start] {
			end++
		}
		b.WriteString(r.paint(cells[start], string(runes[start:end])))
		start = end
	}
	return b.String()
}

func (r *renderer) cells(lexer chroma.Lexer, line diffdoc.Line) []cell {
	base, emph := r.backgrounds(line.Kind)
	cells := make([]cell, utf8.RuneCountInString(line.CodeText))
	for i := range cells {
		cells[i].bg = base
	}
	for _, sp := range line.EmphasisSpans {
		for i := max(sp.Start, 0); i < min(sp.End, len(cells)); i++ {
			cells[i].bg = emph
		}
	}
	if lexer != nil {
		r.highlight(lexer, line.CodeText, cells)
	}
	return cells
}

func (r *renderer) paint(c cell, s string) string {
	st := r.style()
	if c.fg != "" {
		st = st.Foreground(c.fg)
	}
	if c.bg != "" {
		st = st.Background(c.bg)
	}
	return st.Render(s)
}

func (r *renderer) highlight(lexer chroma.Lexer, code string, cells []cell) {
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return
	}
	style := r.palette.syntaxStyle()
	col := 0
	for _, token := range iterator.Tokens() {
		n := utf8.RuneCountInString(token.Value)
		if color := colorFromEntry(style.Get(token.Type)); color != "" {
			for i := col; i < min(col+n, len(cells)); i++ {
				cells[i].fg = lipgloss.Color(color)
			}
		}
		col += n
		if col >= len(cells) {
			return
		}
	}
}

func (r *renderer) backgrounds(kind diffdoc.LineKind) (base, emph lipgloss.Color) {
	switch kind {
	case diffdoc.KindAddition:
		return r.palette.DiffAdd, r.palette.DiffAddEmph
	case diffdoc.KindDeletion:
		return r.palette.DiffDel, r.palette.DiffDelEmph
	default:
		return "", ""
	}
}

func sign(kind diffdoc.LineKind) string {
	switch kind {
	case diffdoc.KindAddition:
		return "+"
	case diffdoc.KindDeletion:
		return "-"
	default:
		return " "
	}
}

func (r *renderer) commit(res repo.CommitResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (base %s)\n", r.label("committed on"), res.BranchName, res.BaseBranch)
	if res.Pushed {
		fmt.Fprintf(&b, "%s %s\n", r.label("pushed to"), res.RemoteURL)
	}
	if res.PullRequestURL != "" {
		fmt.Fprintf(&b, "%s %s\n", r.label("pull request:"), res.PullRequestURL)
	}
	return b.String()
}

func (r *renderer) catalog(cat worktree.Catalog) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.style().Foreground(r.palette.LineNumber)).
		Headers("", "BRANCH", "HEAD", "STATE", "AHEAD", "BEHIND", "PATH").
		StyleFunc(func(row, _ int) lipgloss.Style {
			st := r.style().Padding(0, 1)
			if row == table.HeaderRow {
				return st.Bold(true)
			}
			return st
		})
	for _, d := range cat.Descriptors {
		t.Row(
			r.currentMark(d.IsCurrent),
			d.BranchName,
			d.HeadShortSHA,
			r.state(d),
			strconv.Itoa(d.AheadCount),
			strconv.Itoa(d.BehindCount),
			d.WorktreePath,
		)
	}
	return fmt.Sprintf("%s %s\n%s\n", r.label("repository"), cat.RepositoryRootPath, t.Render())
}

func (r *renderer) currentMark(current bool) string {
	if !current {
		return ""
	}
	return r.style().Foreground(r.palette.CurrentMark).Render("*")
}

func (r *renderer) state(d worktree.Descriptor) string {
	var flags []string
	switch {
	case d.IsBare:
		flags = append(flags, "bare")
	case d.IsDirty:
		flags = append(flags, r.style().Foreground(r.palette.Dirty).Render("dirty"))
	default:
		flags = append(flags, r.style().Foreground(r.palette.Clean).Render("clean"))
	}
	if d.IsLocked {
		flags = append(flags, "locked")
	}
	if d.IsPrunable {
		flags = append(flags, "prunable")
	}
	return strings.Join(flags, ",")
}

func (r *renderer) descriptor(d worktree.Descriptor) string {
	return fmt.Sprintf("%s %s at %s (%s)\n", r.label("worktree"), d.BranchName, d.WorktreePath, d.HeadShortSHA)
}

func (r *renderer) plan(p worktree.SyncPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", r.label("additions:"), len(p.Additions))
	for _, d := range p.Additions {
		fmt.Fprintf(&b, "  + %s %s\n", d.BranchName, d.WorktreePath)
	}
	fmt.Fprintf(&b, "%s %d\n", r.label("updates:"), len(p.Updates))
	for _, u := range p.Updates {
		fmt.Fprintf(&b, "  ~ %s -> %s %s\n", u.WorkspaceID, u.Descriptor.BranchName, u.Descriptor.WorktreePath)
	}
	return b.String()
}

func (r *renderer) stale(ids []string) string {
	if len(ids) == 0 {
		return "no stale workspaces\n"
	}
	return strings.Join(ids, "\n") + "\n"
}

func (r *renderer) metadata(m worktree.Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.label("branch:"), m.Branch)
	if m.OID != "" {
		fmt.Fprintf(&b, "%s %s\n", r.label("commit:"), m.OID)
	}
	if m.Upstream != "" {
		fmt.Fprintf(&b, "%s %s (ahead %d, behind %d)\n", r.label("upstream:"), m.Upstream, m.Ahead, m.Behind)
	}
	var changes []string
	for _, c := range []struct {
		set  bool
		name string
	}{
		{m.HasStaged, "staged"},
		{m.HasUnstaged, "unstaged"},
		{m.HasUntracked, "untracked"},
		{m.HasConflicts, "conflicts"},
	} {
		if c.set {
			changes = append(changes, c.name)
		}
	}
	if len(changes) == 0 {
		changes = append(changes, "none")
	}
	fmt.Fprintf(&b, "%s %s\n", r.label("changes:"), strings.Join(changes, ", "))
	return b.String()
}
