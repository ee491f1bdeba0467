// Package completion proposes HiveQL completions for a cursor position.
//
// The Engine walks the syntax nodes enclosing the cursor from the innermost
// outwards and asks the classifier what each one means for completion: a
// keyword position, a FROM target, a qualified column reference, and so on.
// The first node that yields candidates, or that starts before the cursor,
// ends the walk.
package completion

import (
	"cmp"
	"slices"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/catalog"
	"github.com/rlch/hiveql/facts"
	"go.uber.org/zap"
)

// QualifiedTablePolicy decides what a database-qualified FROM target such as
// `school.` offers.
type QualifiedTablePolicy uint8

const (
	// TablesOnly offers the tables of the named database.
	TablesOnly QualifiedTablePolicy = iota
	// TablesAndDatabases also lists the databases after the tables.
	TablesAndDatabases
)

// ParsePolicy maps a config value to a policy. Unknown values yield TablesOnly.
func ParsePolicy(s string) QualifiedTablePolicy {
	if s == hiveql.QualifiedTablesAndDatabases {
		return TablesAndDatabases
	}

	return TablesOnly
}

// Engine produces completion lists. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	provider catalog.Provider
	facts    *facts.Set
	logger   *zap.Logger
	policy   QualifiedTablePolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithFacts replaces the built-in keyword and function data.
func WithFacts(set *facts.Set) Option {
	return func(e *Engine) { e.facts = set }
}

// WithQualifiedTablePolicy sets the policy for `db.` FROM targets.
func WithQualifiedTablePolicy(p QualifiedTablePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// NewEngine creates an engine reading metadata from provider. A nil provider
// behaves as an empty catalog.
func NewEngine(provider catalog.Provider, opts ...Option) *Engine {
	if provider == nil {
		provider = catalog.Empty
	}

	e := &Engine{
		provider: provider,
		facts:    facts.Default(),
		logger:   zap.NewNop(),
		policy:   TablesOnly,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Facts returns the reference data the engine proposes.
func (e *Engine) Facts() *facts.Set {
	return e.facts
}

// Provider returns the catalog the engine reads by default.
func (e *Engine) Provider() catalog.Provider { //nolint:ireturn
	return e.provider
}

// ParseProgram parses text for use with DoComplete.
func ParseProgram(text string) *hiveql.Program {
	return hiveql.Parse(text)
}

// request carries the state of one completion call.
type request struct {
	prog     *hiveql.Program
	catalog  catalog.Provider
	offset   int
	word     string
	wordSpan Span
}

// DoComplete returns the candidates for pos in doc. program must be the parse
// of doc's text; a nil program is parsed on demand. override, when non-nil,
// replaces the engine's catalog for this call only.
func (e *Engine) DoComplete(doc *Document, pos Position, program *hiveql.Program, override catalog.Provider) CompletionList {
	if program == nil {
		program = hiveql.Parse(doc.Text())
	}

	provider := e.provider
	if override != nil {
		provider = override
	}

	offset := doc.OffsetAt(pos)
	word := currentWord(doc.Text(), offset)

	r := &request{
		prog:     program,
		catalog:  provider,
		offset:   offset,
		word:     word,
		wordSpan: Span{Start: offset - len(word), End: offset},
	}

	items := e.walk(r)
	list := finalize(items)

	e.logger.Debug("completion",
		zap.Int("offset", offset),
		zap.String("word", word),
		zap.Int("items", len(list.Items)),
	)

	return list
}

// Complete is DoComplete for a plain string and byte offset.
func (e *Engine) Complete(text string, offset int) CompletionList {
	doc := NewDocument(text)

	return e.DoComplete(doc, doc.PositionAt(offset), nil, nil)
}

func (e *Engine) walk(r *request) []Candidate {
	path := r.prog.Path(r.offset)

	for i := len(path) - 1; i >= 0; i-- {
		id := path[i]

		items, handled := e.classify(r, id)
		if !handled {
			continue
		}

		if len(items) > 0 || r.offset > r.prog.Offset(id) {
			return items
		}
	}

	return e.programLevel(r)
}

// finalize assigns the default sort key when any candidate is keyed, orders by
// key keeping insertion order within a key, and drops exact duplicates.
func finalize(items []Candidate) CompletionList {
	keyed := slices.ContainsFunc(items, func(c Candidate) bool { return c.SortKey != "" })

	out := make([]Candidate, 0, len(items))

	for _, c := range items {
		if keyed && c.SortKey == "" {
			c.SortKey = sortDefault
		}

		if slices.ContainsFunc(out, c.same) {
			continue
		}

		out = append(out, c)
	}

	if keyed {
		slices.SortStableFunc(out, func(a, b Candidate) int {
			return cmp.Compare(a.SortKey, b.SortKey)
		})
	}

	return CompletionList{Items: out}
}

func (c Candidate) same(o Candidate) bool {
	return c.Label == o.Label && c.Detail == o.Detail && c.InsertText == o.InsertText &&
		c.Span == o.Span && c.SortKey == o.SortKey
}
