package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/rlch/hiveql/completion"
)

const replMaxItems = 8

var errNotTerminal = errors.New("repl needs an interactive terminal")

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Type queries with live completion (tab accepts, up/down select, enter prints)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return errNotTerminal
			}

			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			p := tea.NewProgram(newReplModel(e.engine, DefaultStyles()), tea.WithContext(ctx))
			_, err = p.Run()

			return err
		},
	}
}

type replModel struct {
	engine *completion.Engine
	styles *Styles

	input    textinput.Model
	items    []completion.Candidate
	selected int
	quitting bool
}

func newReplModel(engine *completion.Engine, styles *Styles) replModel {
	ti := textinput.New()
	ti.Prompt = styles.Prompt.Render("hiveql> ")
	ti.Placeholder = "select * from ..."
	ti.CharLimit = 4096
	ti.Width = 100
	ti.Focus()

	m := replModel{engine: engine, styles: styles, input: ti}
	m.refresh()

	return m
}

// Init initializes the bubbletea model.
func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events for the bubbletea model.
func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // bubbletea.Model interface required by tea.Program
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyTab:
			m.accept()
			return m, nil

		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}

			return m, nil

		case tea.KeyDown:
			if m.selected < len(m.items)-1 {
				m.selected++
			}

			return m, nil

		case tea.KeyEnter:
			query := m.input.Value()
			m.input.SetValue("")
			m.refresh()

			return m, tea.Println(query)
		}
	}

	var cmd tea.Cmd

	before, pos := m.input.Value(), m.input.Position()
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != before || m.input.Position() != pos {
		m.refresh()
	}

	return m, cmd
}

// cursor returns the input text and the cursor as a byte offset.
func (m *replModel) cursor() (string, int) {
	text := m.input.Value()

	return text, byteOffset(text, m.input.Position())
}

func (m *replModel) refresh() {
	text, offset := m.cursor()
	m.items = m.engine.Complete(text, offset).Items
	m.selected = 0
}

// accept applies the selected candidate and moves the cursor after the
// inserted text, or into the argument list of a function snippet.
func (m *replModel) accept() {
	if len(m.items) == 0 {
		return
	}

	text, _ := m.cursor()
	c := m.items[m.selected]
	result := c.Apply(text)

	end := len(result) - (len(text) - c.Span.End)
	if c.Format == completion.FormatSnippet {
		if i := strings.IndexByte(c.InsertText, '$'); i >= 0 {
			end = c.Span.Start + i
		}
	}

	m.input.SetValue(result)
	m.input.SetCursor(utf8.RuneCountInString(result[:end]))
	m.refresh()
}

// View renders the prompt and the candidate window around the selection.
func (m replModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	start := max(0, min(m.selected-replMaxItems/2, len(m.items)-replMaxItems))
	end := min(len(m.items), start+replMaxItems)

	for i := start; i < end; i++ {
		c := m.items[i]

		pointer := "  "
		label := m.styles.Label.Render(c.Label)

		if i == m.selected {
			pointer = m.styles.SymbolPointer + " "
			label = m.styles.Selected.Render(c.Label)
		}

		detail := fmt.Sprintf("%-*s", m.styles.DetailWidth, c.Detail)
		fmt.Fprintf(&b, "%s%s %s\n", pointer, m.styles.category(c.Detail).Render(detail), label)
	}

	if len(m.items) > replMaxItems {
		fmt.Fprintf(&b, "%s\n", m.styles.Dim.Render(fmt.Sprintf("  %d/%d", m.selected+1, len(m.items))))
	}

	if len(m.items) > 0 && m.items[m.selected].Documentation != nil {
		b.WriteString(m.styles.Doc.Render(*m.items[m.selected].Documentation))
		b.WriteString("\n")
	}

	return b.String()
}

// byteOffset converts a rune index of text to a byte offset.
func byteOffset(text string, runes int) int {
	offset := 0

	for i := 0; i < runes && offset < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}

	return offset
}
