package completion

// Category tags what a candidate refers to.
type Category string

const (
	CategoryDatabase Category = "database"
	CategoryTable    Category = "table"
	CategoryColumn   Category = "column"
	CategoryKeyword  Category = "keyword"
	CategoryFunction Category = "function"
	CategoryVariable Category = "variable" // common table expression names
	CategoryText     Category = "text"
)

// InsertFormat says how InsertText is interpreted.
type InsertFormat uint8

const (
	FormatPlain InsertFormat = iota
	// FormatSnippet marks InsertText containing a tab stop such as `count($1)`.
	FormatSnippet
)

// Span is a half-open byte range [Start, End) of the document.
type Span struct {
	Start int
	End   int
}

// Candidate is one completion proposal.
type Candidate struct {
	Label         string
	Detail        Category
	Documentation *string
	InsertText    string
	Format        InsertFormat
	Span          Span // text replaced by InsertText
	SortKey       string
}

// Apply returns text with the candidate's edit applied. Snippet tab stops are
// dropped.
func (c Candidate) Apply(text string) string {
	insert := c.InsertText
	if c.Format == FormatSnippet {
		insert = stripTabStops(insert)
	}

	return text[:c.Span.Start] + insert + text[c.Span.End:]
}

// CompletionList is the result of one completion request. It is always complete.
type CompletionList struct {
	IsIncomplete bool
	Items        []Candidate
}

// Labels returns the item labels in order.
func (l CompletionList) Labels() []string {
	labels := make([]string, len(l.Items))
	for i, item := range l.Items {
		labels[i] = item.Label
	}

	return labels
}

// Find returns the first item with the given label.
func (l CompletionList) Find(label string) (Candidate, bool) {
	for _, item := range l.Items {
		if item.Label == label {
			return item, true
		}
	}

	return Candidate{}, false
}

func stripTabStops(s string) string {
	out := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			i++
			for i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				i++
			}

			continue
		}

		out = append(out, s[i])
	}

	return string(out)
}
