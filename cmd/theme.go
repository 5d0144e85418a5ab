package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func parseThemePreference(raw string) (ThemePreference, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ThemeAuto.String():
		return ThemeAuto, nil
	case ThemeDark.String():
		return ThemeDark, nil
	case ThemeLight.String():
		return ThemeLight, nil
	default:
		return ThemeAuto, fmt.Errorf("unknown theme %q", raw)
	}
}

type colorPalette struct {
	Name        string
	SyntaxStyle string
	DiffAdd     lipgloss.Color
	DiffDel     lipgloss.Color
	DiffAddEmph lipgloss.Color
	DiffDelEmph lipgloss.Color
	DiffHeader  lipgloss.Color
	LineNumber  lipgloss.Color
	FileHeader  lipgloss.Color
	Dirty       lipgloss.Color
	Clean       lipgloss.Color
	CurrentMark lipgloss.Color
}

var (
	lightPalette = colorPalette{
		Name:        "light",
		SyntaxStyle: "github",
		DiffAdd:     "#dff5de",
		DiffDel:     "#f9d6d5",
		DiffAddEmph: "#a6e3a1",
		DiffDelEmph: "#f2a8a6",
		DiffHeader:  "#e4e4e4",
		LineNumber:  "#8c8c8c",
		FileHeader:  "#0550ae",
		Dirty:       "#cf222e",
		Clean:       "#1a7f37",
		CurrentMark: "#8250df",
	}
	darkPalette = colorPalette{
		Name:        "dark",
		SyntaxStyle: "github-dark",
		DiffAdd:     "#1f3d2b",
		DiffDel:     "#3d1f29",
		DiffAddEmph: "#2f6b45",
		DiffDelEmph: "#6b2f41",
		DiffHeader:  "#2f2f2f",
		LineNumber:  "#6e7681",
		FileHeader:  "#79c0ff",
		Dirty:       "#ff7b72",
		Clean:       "#3fb950",
		CurrentMark: "#d2a8ff",
	}
	detectDarkMode = darkmode.IsDarkMode
)

func paletteForPreference(pref ThemePreference) colorPalette {
	switch pref {
	case ThemeDark:
		return darkPalette
	case ThemeLight:
		return lightPalette
	default:
		if detectDarkMode != nil {
			if dark, err := detectDarkMode(); err == nil {
				if dark {
					return darkPalette
				}
			} else {
				slog.Debug("detect dark-mode", slog.Any("error", err))
			}
		}
		return lightPalette
	}
}

func (p colorPalette) syntaxStyle() *chroma.Style {
	if st := styles.Get(p.SyntaxStyle); st != nil {
		return st
	}
	return styles.Fallback
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if entry.Colour.IsSet() {
		col := entry.Colour.String()
		col = strings.TrimPrefix(strings.ToLower(col), "#")
		return "#" + col
	}
	return ""
}
