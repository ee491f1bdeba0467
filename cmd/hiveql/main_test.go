package main

import (
	"bytes"
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/hiveql/catalog"
	"github.com/rlch/hiveql/completion"
)

func TestSplitCursor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		marker     string
		offset     int
		wantText   string
		wantOffset int
		wantErr    error
	}{
		{name: "marker", input: "use |", marker: "|", offset: -1, wantText: "use ", wantOffset: 4},
		{name: "marker mid query", input: "select s.| from t s", marker: "|", offset: -1, wantText: "select s. from t s", wantOffset: 9},
		{name: "custom marker", input: "select a || b<>", marker: "<>", offset: -1, wantText: "select a || b", wantOffset: 13},
		{name: "no marker", input: "select ", marker: "|", offset: -1, wantText: "select ", wantOffset: 7},
		{name: "offset wins", input: "use |", marker: "|", offset: 2, wantText: "use |", wantOffset: 2},
		{name: "offset out of range", input: "use", marker: "|", offset: 9, wantErr: errOffsetRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			text, offset, err := splitCursor(tt.input, tt.marker, tt.offset)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func sampleEngine() *completion.Engine {
	return completion.NewEngine(catalog.NewSnapshot(catalog.Sample()))
}

func TestWriteCandidates(t *testing.T) {
	t.Parallel()

	text := "use "
	items := sampleEngine().Complete(text, len(text)).Items

	var buf bytes.Buffer
	writeCandidates(&buf, PlainStyles(), text, items, true)

	assert.Equal(t, ""+
		"database   school  use school\n"+
		"database   library  use library\n"+
		"keyword    default  use default\n", buf.String())

	buf.Reset()
	writeCandidates(&buf, PlainStyles(), text, nil, false)
	assert.Equal(t, "no completions\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	text := "SELECT s. FROM school.student s"
	items := sampleEngine().Complete(text, 9).Items

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, text, items))

	var got []jsonCandidate
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 5)

	assert.Equal(t, jsonCandidate{
		Label:      "id",
		Detail:     "column",
		InsertText: "id",
		Start:      9,
		End:        9,
		Result:     "SELECT s.id FROM school.student s",
	}, got[0])
	assert.Equal(t, "*", got[4].Label)
}

func TestByteOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, byteOffset("héllo", 0))
	assert.Equal(t, 3, byteOffset("héllo", 2))
	assert.Equal(t, 6, byteOffset("héllo", 99))
}

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	return m
}

func TestReplModel_Accept(t *testing.T) {
	t.Parallel()

	var m tea.Model = newReplModel(sampleEngine(), PlainStyles())

	m = typeText(m, "use school; select * from ")

	rm, ok := m.(replModel)
	require.True(t, ok)
	require.NotEmpty(t, rm.items)
	assert.Equal(t, "student", rm.items[0].Label)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	rm = m.(replModel) //nolint:forcetypeassert
	assert.Equal(t, "use school; select * from course", rm.input.Value())
	assert.Equal(t, len("use school; select * from course"), rm.input.Position())
	assert.Contains(t, rm.View(), "hiveql> ")
}

func TestReplModel_AcceptSnippet(t *testing.T) {
	t.Parallel()

	var m tea.Model = newReplModel(sampleEngine(), PlainStyles())

	m = typeText(m, "select coun")

	rm := m.(replModel) //nolint:forcetypeassert
	for rm.items[rm.selected].Label != "count()" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
		rm = m.(replModel) //nolint:forcetypeassert
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	rm = m.(replModel) //nolint:forcetypeassert
	assert.Equal(t, "select count()", rm.input.Value())
	assert.Equal(t, len("select count("), rm.input.Position())
}

func TestReplModel_Quit(t *testing.T) {
	t.Parallel()

	var m tea.Model = newReplModel(sampleEngine(), PlainStyles())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
