package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rlch/hiveql/completion"
)

// Category colors.
var (
	colorDatabase = lipgloss.Color("#3b82f6") // blue-500
	colorTable    = lipgloss.Color("#10b981") // green-500
	colorColumn   = lipgloss.Color("#06b6d4") // cyan-500
	colorKeyword  = lipgloss.Color("#d946ef") // fuchsia-500
	colorFunction = lipgloss.Color("#f59e0b") // amber-500
	colorVariable = lipgloss.Color("#eab308") // yellow-500

	// UI colors.
	colorDim    = lipgloss.Color("#6b7280") // gray-500
	colorMuted  = lipgloss.Color("#9ca3af") // gray-400
	colorBorder = lipgloss.Color("#374151") // gray-700
)

// Styles holds the lipgloss styles for candidate listings.
type Styles struct {
	Categories map[completion.Category]lipgloss.Style

	Label    lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Muted    lipgloss.Style
	Doc      lipgloss.Style
	Prompt   lipgloss.Style

	SymbolPointer string

	// Width of the category column
	DetailWidth int
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() *Styles {
	return &Styles{
		Categories: map[completion.Category]lipgloss.Style{
			completion.CategoryDatabase: lipgloss.NewStyle().Foreground(colorDatabase),
			completion.CategoryTable:    lipgloss.NewStyle().Foreground(colorTable),
			completion.CategoryColumn:   lipgloss.NewStyle().Foreground(colorColumn),
			completion.CategoryKeyword:  lipgloss.NewStyle().Foreground(colorKeyword),
			completion.CategoryFunction: lipgloss.NewStyle().Foreground(colorFunction),
			completion.CategoryVariable: lipgloss.NewStyle().Foreground(colorVariable),
			completion.CategoryText:     lipgloss.NewStyle().Foreground(colorMuted),
		},

		Label:    lipgloss.NewStyle().Bold(true),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		Dim:      lipgloss.NewStyle().Foreground(colorDim),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Doc: lipgloss.NewStyle().
			Foreground(colorMuted).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		Prompt: lipgloss.NewStyle().Foreground(colorTable).Bold(true),

		SymbolPointer: "❯",

		DetailWidth: 10,
	}
}

// PlainStyles returns styles that render text unchanged, for pipes and files.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()

	s := &Styles{
		Categories:    map[completion.Category]lipgloss.Style{},
		Label:         plain,
		Selected:      plain,
		Dim:           plain,
		Muted:         plain,
		Doc:           plain,
		Prompt:        plain,
		SymbolPointer: ">",
		DetailWidth:   10,
	}

	return s
}

func (s *Styles) category(c completion.Category) lipgloss.Style {
	if style, ok := s.Categories[c]; ok {
		return style
	}

	return lipgloss.NewStyle()
}
