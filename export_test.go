package hiveql

import "github.com/alecthomas/participle/v2/lexer"

// ExportedLexer exposes the HiveQL lexer definition to black-box tests.
//
//nolint:ireturn
func ExportedLexer() lexer.Definition {
	return hiveLexer
}
