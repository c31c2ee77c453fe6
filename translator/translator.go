// Package translator rewrites MySQL-dialect SQL text into PostgreSQL
// dialect, or fabricates a canned response for statements the gateway
// intercepts outright. It is a pure function of its input: no network
// I/O, no backend state.
package translator

import (
	"strings"

	"pgmy/gwerr"
	"pgmy/resultset"
)

// Context carries the per-session facts the translator needs to
// resolve session-dependent canned responses (database(), user(),
// connection_id()) without reaching into the session type itself.
type Context struct {
	CurrentDB    string
	User         string
	PeerAddr     string
	ConnectionID uint32
}

// Kind distinguishes the four shapes a translated statement can take.
type Kind int

const (
	KindForwarded Kind = iota
	KindIntercepted
	KindNoOp
	KindError
)

// Statement is one element of a (possibly multi-statement) translation
// result.
type Statement struct {
	Kind Kind

	// Forwarded
	SQL string

	// Intercepted
	Result *resultset.Set

	// NoOp: UseDB is set when the statement was "USE <db>", telling the
	// session to update its current-database field.
	UseDB string

	// Error
	Err *gwerr.GatewayError
}

// Translated is the full result of translating one COM_QUERY payload,
// which may contain several top-level ';'-separated statements.
type Translated struct {
	Statements []Statement
}

// Translate splits sql at top-level semicolons, then translates each
// piece independently through intercept, rewrite, and validate. A
// single Error statement anywhere in the batch is returned as the sole
// element, since the session must not forward a partial batch whose
// later statements depend on an earlier one that was refused.
func Translate(sql string, ctx Context) *Translated {
	parts := splitStatements(sql)
	if len(parts) == 0 {
		return &Translated{Statements: []Statement{{Kind: KindNoOp}}}
	}

	var out []Statement
	for _, part := range parts {
		stmt := translateOne(strings.TrimSpace(part), ctx)
		if stmt.Kind == KindError {
			return &Translated{Statements: []Statement{stmt}}
		}
		out = append(out, stmt)
	}
	return &Translated{Statements: out}
}

func translateOne(sql string, ctx Context) Statement {
	sql = trimTrailingSemicolon(strings.TrimSpace(sql))
	if sql == "" {
		return Statement{Kind: KindNoOp}
	}

	if stmt, ok := intercept(sql, ctx); ok {
		return stmt
	}

	rewritten, err := rewrite(sql)
	if err != nil {
		return Statement{Kind: KindError, Err: err}
	}

	if err := validateBalance(rewritten); err != nil {
		return Statement{Kind: KindError, Err: err}
	}

	return Statement{Kind: KindForwarded, SQL: rewritten}
}

func trimTrailingSemicolon(sql string) string {
	return strings.TrimRight(strings.TrimSpace(sql), "; \t\n\r")
}

// splitStatements splits sql at top-level (outside literals/comments)
// semicolons.
func splitStatements(sql string) []string {
	spans := scanSpans(sql)
	var parts []string
	var cur strings.Builder
	for _, sp := range spans {
		if sp.kind == spanCode {
			for _, r := range sp.text {
				if r == ';' {
					parts = append(parts, cur.String())
					cur.Reset()
					continue
				}
				cur.WriteRune(r)
			}
			continue
		}
		cur.WriteString(sp.text)
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return nonEmpty
}

// validateBalance rejects a rewrite that produced unbalanced quotes or
// parentheses, ignoring literal spans.
func validateBalance(sql string) *gwerr.GatewayError {
	depth := 0
	for _, sp := range scanSpans(sql) {
		if sp.kind != spanCode {
			continue
		}
		for _, r := range sp.text {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth < 0 {
				return gwerr.Translation("unbalanced parentheses in rewritten statement")
			}
		}
	}
	if depth != 0 {
		return gwerr.Translation("unbalanced parentheses in rewritten statement")
	}
	// scanSpans runs an unterminated quote to end of input without
	// complaint, so check quote pairing against the raw text.
	if !quotesBalanced(sql) {
		return gwerr.Translation("unbalanced quotes in rewritten statement")
	}
	return nil
}

func quotesBalanced(sql string) bool {
	inSingle, inDouble, inBack := false, false, false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if c == '\\' && (inSingle || inDouble) {
			i++ // skip the escaped character
			continue
		}
		switch {
		case c == '\'' && !inDouble && !inBack:
			inSingle = !inSingle
		case c == '"' && !inSingle && !inBack:
			inDouble = !inDouble
		case c == '`' && !inSingle && !inDouble:
			inBack = !inBack
		}
	}
	return !inSingle && !inDouble && !inBack
}

// unsupported is a helper for rewrite steps that must refuse a statement
// outright (REPLACE INTO, multi-table UPDATE/DELETE).
func unsupported(format string, args ...any) *gwerr.GatewayError {
	return gwerr.Translation(format, args...)
}
