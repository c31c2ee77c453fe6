package translator

import (
	"fmt"
	"regexp"
	"strings"

	"pgmy/mysqlproto"
	"pgmy/resultset"
	"pgmy/version"
)

// interceptRule pairs a case-insensitive, whitespace-tolerant matcher
// with the handler that builds the canned response for it.
type interceptRule struct {
	pattern *regexp.Regexp
	handle  func(Context) Statement
}

var interceptRules = []interceptRule{
	{
		pattern: regexp.MustCompile(`(?i)^select\s+@@version_comment(\s+limit\s+\d+)?\s*$`),
		handle: func(Context) Statement {
			return singleRowOK("@@version_comment", mysqlproto.TypeVarString, []byte(version.Comment))
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^select\s+@@version(\s+limit\s+\d+)?\s*$`),
		handle: func(Context) Statement {
			return singleRowOK("@@version", mysqlproto.TypeVarString, []byte(version.Server))
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^select\s+@@sql_mode(\s+limit\s+\d+)?\s*$`),
		handle: func(Context) Statement {
			return singleRowOK("@@sql_mode", mysqlproto.TypeVarString, []byte(""))
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^select\s+database\s*\(\s*\)(\s+limit\s+\d+)?\s*$`),
		handle: func(ctx Context) Statement {
			if ctx.CurrentDB == "" {
				return singleRowOK("database()", mysqlproto.TypeVarString, nil)
			}
			return singleRowOK("database()", mysqlproto.TypeVarString, []byte(ctx.CurrentDB))
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^select\s+user\s*\(\s*\)(\s+limit\s+\d+)?\s*$`),
		handle: func(ctx Context) Statement {
			val := fmt.Sprintf("%s@%s", ctx.User, ctx.PeerAddr)
			return singleRowOK("user()", mysqlproto.TypeVarString, []byte(val))
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^select\s+connection_id\s*\(\s*\)(\s+limit\s+\d+)?\s*$`),
		handle: func(ctx Context) Statement {
			return singleRowOK("connection_id()", mysqlproto.TypeLong, []byte(fmt.Sprintf("%d", ctx.ConnectionID)))
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^show\s+variables(\s+like\s+.*)?$`),
		handle: func(Context) Statement {
			return Statement{
				Kind: KindIntercepted,
				Result: &resultset.Set{
					Columns: []resultset.Column{
						{Name: "Variable_name", Type: mysqlproto.TypeVarString, Length: 255},
						{Name: "Value", Type: mysqlproto.TypeVarString, Length: 255},
					},
					Rows: nil,
				},
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^set\s+.*$`),
		handle:  func(Context) Statement { return Statement{Kind: KindNoOp} },
	},
}

// useDBPattern is handled outside interceptRules because it both
// produces a NoOp and carries the database name back to the session.
var useDBPattern = regexp.MustCompile(`(?i)^use\s+(\S+)\s*$`)

func singleRowOK(col string, typ byte, value []byte) Statement {
	return Statement{Kind: KindIntercepted, Result: resultset.NewSingleRow(col, typ, value)}
}

// intercept checks sql against the intercept rules and returns the
// canned response if it matches, without touching the backend.
func intercept(sql string, ctx Context) (Statement, bool) {
	if m := useDBPattern.FindStringSubmatch(sql); m != nil {
		return Statement{Kind: KindNoOp, UseDB: strings.Trim(m[1], "`\"")}, true
	}
	for _, rule := range interceptRules {
		if rule.pattern.MatchString(sql) {
			return rule.handle(ctx), true
		}
	}
	return Statement{}, false
}
