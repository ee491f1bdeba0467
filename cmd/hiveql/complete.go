package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/rlch/hiveql/completion"
)

var errOffsetRange = errors.New("cursor offset out of range")

func completeCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "List completions for a query",
		ArgsUsage: "[query]",
		Description: "The cursor is placed at the first occurrence of the marker in the query, " +
			"or at --offset, or at the end. Without a query argument the query is read from stdin.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "marker",
				Value: "|",
				Usage: "cursor marker in the query",
			},
			&cli.IntFlag{
				Name:  "offset",
				Value: -1,
				Usage: "cursor byte offset (overrides the marker)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "show at most n candidates (0 for all)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output candidates as JSON",
			},
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "show the query each candidate produces",
			},
		},
		Action: runComplete,
	}
}

func runComplete(ctx context.Context, cmd *cli.Command) error {
	input := cmd.Args().First()
	if cmd.Args().Len() == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}

		input = strings.TrimSuffix(string(data), "\n")
	}

	text, offset, err := splitCursor(input, cmd.String("marker"), int(cmd.Int("offset")))
	if err != nil {
		return err
	}

	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	list := e.engine.Complete(text, offset)

	items := list.Items
	if limit := int(cmd.Int("limit")); limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	if cmd.Bool("json") {
		return writeJSON(os.Stdout, text, items)
	}

	styles := PlainStyles()
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		styles = DefaultStyles()
	}

	writeCandidates(os.Stdout, styles, text, items, cmd.Bool("apply"))

	return nil
}

// splitCursor removes the cursor marker from input. A non-negative offset
// wins over the marker; with neither the cursor is at the end.
func splitCursor(input, marker string, offset int) (string, int, error) {
	if offset >= 0 {
		if offset > len(input) {
			return "", 0, fmt.Errorf("%w: %d > %d", errOffsetRange, offset, len(input))
		}

		return input, offset, nil
	}

	if marker != "" {
		if i := strings.Index(input, marker); i >= 0 {
			return input[:i] + input[i+len(marker):], i, nil
		}
	}

	return input, len(input), nil
}

func writeCandidates(w io.Writer, styles *Styles, text string, items []completion.Candidate, apply bool) {
	if len(items) == 0 {
		fmt.Fprintln(w, styles.Dim.Render("no completions"))
		return
	}

	for _, c := range items {
		detail := fmt.Sprintf("%-*s", styles.DetailWidth, c.Detail)
		line := styles.category(c.Detail).Render(detail) + " " + styles.Label.Render(c.Label)

		if apply {
			line += "  " + styles.Dim.Render(c.Apply(text))
		}

		fmt.Fprintln(w, line)
	}
}

type jsonCandidate struct {
	Label         string `json:"label"`
	Detail        string `json:"detail"`
	Documentation string `json:"documentation,omitempty"`
	InsertText    string `json:"insertText"`
	Snippet       bool   `json:"snippet,omitempty"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	SortKey       string `json:"sortKey,omitempty"`
	Result        string `json:"result"`
}

func writeJSON(w io.Writer, text string, items []completion.Candidate) error {
	out := make([]jsonCandidate, 0, len(items))

	for _, c := range items {
		jc := jsonCandidate{
			Label:      c.Label,
			Detail:     string(c.Detail),
			InsertText: c.InsertText,
			Snippet:    c.Format == completion.FormatSnippet,
			Start:      c.Span.Start,
			End:        c.Span.End,
			SortKey:    c.SortKey,
			Result:     c.Apply(text),
		}

		if c.Documentation != nil {
			jc.Documentation = *c.Documentation
		}

		out = append(out, jc)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
