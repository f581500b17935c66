package render

import (
	"log/slog"
	"strings"

	"github.com/fatih/color"
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

func ThemePreferenceFromString(raw string) ThemePreference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	default:
		return ThemeAuto
	}
}

type colorPalette struct {
	Name       string
	ChromaName string
	DiffAdd    []color.Attribute
	DiffDel    []color.Attribute
	DiffHeader []color.Attribute
	DiffHunk   []color.Attribute
	CommitID   []color.Attribute
	Muted      []color.Attribute
}

var (
	lightPalette = colorPalette{
		Name:       "light",
		ChromaName: "github",
		DiffAdd:    []color.Attribute{color.FgGreen},
		DiffDel:    []color.Attribute{color.FgRed},
		DiffHeader: []color.Attribute{color.Bold},
		DiffHunk:   []color.Attribute{color.FgCyan},
		CommitID:   []color.Attribute{color.FgYellow},
		Muted:      []color.Attribute{color.FgHiBlack},
	}
	darkPalette = colorPalette{
		Name:       "dark",
		ChromaName: "github-dark",
		DiffAdd:    []color.Attribute{color.FgHiGreen},
		DiffDel:    []color.Attribute{color.FgHiRed},
		DiffHeader: []color.Attribute{color.Bold, color.FgHiWhite},
		DiffHunk:   []color.Attribute{color.FgHiCyan},
		CommitID:   []color.Attribute{color.FgHiYellow},
		Muted:      []color.Attribute{color.FgWhite},
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

func (p colorPalette) isDark() bool {
	return p.Name == darkPalette.Name
}
