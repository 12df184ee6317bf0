// Package bibtex parses bibtex sources into entries whose values keep
// enough structure for a later macro-resolution pass, and provides the
// passes built on top of that: macro resolution, printing, export, sorting,
// and set operations (deduplication, union, intersection) across files.
//
// The parser is a pure function of its input; independent parses may run
// concurrently.
package bibtex

// Grammar
//
// Document  ::= Skip Entry+
// Entry     ::= '@' Ident '{' Ident ',' FieldList ','? '}'
// FieldList ::= Field (',' Field)*       -- tried first
//            |  Field+                    -- only when the first form matched nothing
// Field     ::= Ident '=' Value
// Value     ::= Atom ('#' Atom)*         -- always a Concatenation
// Atom      ::= '"' [^"]* '"'
//            |  '{' ([^{}] | '{' ... '}')* '}'   -- balanced
//            |  Ident
// Ident     ::= [\p{L}\p{N}-_:+]+
// Skip      ::= (\s | '%' [^\n]* ('\n' | EOF))*  -- after every token
//
// With Options.Commands:
// Entry     ::= '@' "string" '{' FieldList ','? '}'
//            |  '@' "preamble" '{' Value '}'
//            |  '@' "comment" Braced
//            |  ...
//
// With Options.Junk any text before an '@' is skipped.
