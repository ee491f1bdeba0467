package lsp

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/facts"
)

// SignatureHelp handles textDocument/signatureHelp requests.
// Shows the syntax of the built-in function whose argument list holds the cursor.
func (s *Server) SignatureHelp(_ context.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	s.logger.Debug("SignatureHelp",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	offset := doc.Text.OffsetAt(toPosition(params.Position))

	call, ok := openCall(doc.Text.Text()[:offset])
	if !ok {
		return nil, nil //nolint:nilnil
	}

	fn, ok := s.engine.Facts().Lookup(call.name)
	if !ok || fn.Kind != facts.KindFunction {
		return nil, nil //nolint:nilnil
	}

	sig := signatureInfo(fn)

	active := call.commas
	if n := len(sig.Parameters); n > 0 && active >= n {
		active = n - 1
	}

	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{sig},
		ActiveSignature: 0,
		ActiveParameter: uint32(active), //nolint:gosec
	}, nil
}

type callInfo struct {
	name   string
	commas int
}

// openCall finds the innermost unclosed function call at the end of text.
func openCall(text string) (callInfo, bool) {
	var (
		stack []callInfo
		prev  string
	)

	for _, tok := range hiveql.Tokenize(text) {
		switch tok.Type {
		case hiveql.TokenWhitespace, hiveql.TokenComment:
			continue
		case hiveql.TokenLParen:
			stack = append(stack, callInfo{name: prev})
		case hiveql.TokenRParen:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case hiveql.TokenComma:
			if len(stack) > 0 {
				stack[len(stack)-1].commas++
			}
		}

		prev = ""
		if tok.Type == hiveql.TokenIdent || tok.Type == hiveql.TokenKeyword {
			prev = tok.Value
		}
	}

	if len(stack) == 0 || stack[len(stack)-1].name == "" {
		return callInfo{}, false
	}

	return stack[len(stack)-1], true
}

// signatureInfo builds signature information from a function's syntax line,
// e.g. `nvl(T value, T default_value)`.
func signatureInfo(fn facts.Entry) protocol.SignatureInformation {
	label := fn.Syntax
	if label == "" {
		label = fn.Literal()
	}

	// Alternative forms are listed comma separated; the first one is shown.
	if i := strings.Index(label, "), "); i >= 0 {
		label = label[:i+1]
	}

	sig := protocol.SignatureInformation{Label: label}

	if fn.Description != "" {
		sig.Documentation = protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: fn.Description,
		}
	}

	open := strings.IndexByte(label, '(')
	end := strings.LastIndexByte(label, ')')

	if open < 0 || end <= open+1 {
		return sig
	}

	for _, param := range strings.Split(label[open+1:end], ",") {
		if param = strings.TrimSpace(param); param != "" {
			sig.Parameters = append(sig.Parameters, protocol.ParameterInformation{Label: param})
		}
	}

	return sig
}
