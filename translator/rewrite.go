package translator

import (
	"regexp"
	"strings"

	"pgmy/gwerr"
)

// wordRule replaces whole-word occurrences of a MySQL keyword or
// function with its PostgreSQL equivalent inside code spans only.
type wordRule struct {
	pattern *regexp.Regexp
	replace string
}

// wb anchors pattern with a word boundary on both ends; use it for
// keywords that end in a word character. lb anchors only the leading
// edge, for patterns that end in punctuation ("(" or ")") where a
// trailing \b would fail to match.
func wb(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + pattern + `\b`)
}

func lb(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + pattern)
}

// typeRules are the column-type substitutions applied inside CREATE
// TABLE / ALTER TABLE statements. Order matters: the UNSIGNED compounds
// must run before their plain counterparts. DOUBLE and DOUBLE PRECISION
// share one rule so an already-translated type survives a second pass
// unchanged.
var typeRules = []wordRule{
	{wb(`TINYINT\s+UNSIGNED`), "SMALLINT"},
	{wb(`SMALLINT\s+UNSIGNED`), "INTEGER"},
	{wb(`MEDIUMINT\s+UNSIGNED`), "INTEGER"},
	{wb(`INT\s+UNSIGNED`), "BIGINT"},
	{wb(`INTEGER\s+UNSIGNED`), "BIGINT"},
	{wb(`BIGINT\s+UNSIGNED`), "NUMERIC(20)"},
	{wb(`TINYINT`), "SMALLINT"},
	{wb(`MEDIUMINT`), "INTEGER"},
	{wb(`INT`), "INTEGER"},
	{wb(`DOUBLE(\s+PRECISION)?`), "DOUBLE PRECISION"},
	{wb(`FLOAT`), "REAL"},
	{wb(`DATETIME`), "TIMESTAMP"},
	{wb(`TINYTEXT`), "TEXT"},
	{wb(`MEDIUMTEXT`), "TEXT"},
	{wb(`LONGTEXT`), "TEXT"},
	{wb(`TINYBLOB`), "BYTEA"},
	{wb(`MEDIUMBLOB`), "BYTEA"},
	{wb(`LONGBLOB`), "BYTEA"},
	{wb(`BLOB`), "BYTEA"},
	{lb(`VARBINARY\s*\(\s*\d+\s*\)`), "BYTEA"},
	{lb(`BINARY\s*\(\s*\d+\s*\)`), "BYTEA"},
	{wb(`YEAR`), "SMALLINT"},
	{wb(`BOOL`), "BOOLEAN"},
	{wb(`JSON`), "JSONB"},
}

var (
	enumPattern = regexp.MustCompile(`(?i)\bENUM\s*\([^)]*\)`)
	setPattern  = regexp.MustCompile(`(?i)\bSET\s*\([^)]*\)`)
)

// funcRules are function-call substitutions, applied to any statement.
var funcRules = []wordRule{
	{lb(`NOW\s*\(\s*\)`), "CURRENT_TIMESTAMP"},
	{lb(`CURDATE\s*\(\s*\)`), "CURRENT_DATE"},
	{lb(`CURTIME\s*\(\s*\)`), "CURRENT_TIME"},
}

var (
	ifnullPattern = lb(`IFNULL\s*\(`)
	unhexPattern  = lb(`UNHEX\s*\(`)
	hexPattern    = lb(`HEX\s*\(`)

	autoIncrementPattern = regexp.MustCompile(`(?i)\s+AUTO_INCREMENT\b`)
	unsignedPattern      = regexp.MustCompile(`(?i)\s+UNSIGNED\b`)
	onUpdateNowPattern   = regexp.MustCompile(`(?i)\s+ON\s+UPDATE\s+CURRENT_TIMESTAMP(\s*\(\s*\))?`)
	engineSuffixPattern  = regexp.MustCompile(`(?i)\s+ENGINE\s*=\s*\w+`)
	charsetSuffixPattern = regexp.MustCompile(`(?i)\s+(DEFAULT\s+)?CHARSET\s*=\s*\w+`)
	collateSuffixPattern = regexp.MustCompile(`(?i)\s+COLLATE\s*=?\s*\w+`)
	insertIgnorePattern  = regexp.MustCompile(`(?i)^INSERT\s+IGNORE\b`)
	replaceIntoPattern   = regexp.MustCompile(`(?i)^REPLACE\s+INTO\b`)
	createTablePattern   = regexp.MustCompile(`(?i)^CREATE\s+TABLE\b`)
	alterTablePattern    = regexp.MustCompile(`(?i)^ALTER\s+TABLE\b`)

	updatePattern         = regexp.MustCompile(`(?i)^UPDATE\b`)
	deletePattern         = regexp.MustCompile(`(?i)^DELETE\b`)
	joinWordPattern       = regexp.MustCompile(`(?i)\bJOIN\b`)
	setWordPattern        = regexp.MustCompile(`(?i)\bSET\b`)
	tableListCommaPattern = regexp.MustCompile(`(?i)^(UPDATE|DELETE\s+FROM)\s+[\w".` + "`" + `]+(\s+(AS\s+)?\w+)?\s*,`)

	autoIncrementColumnPattern = regexp.MustCompile(`(?i)(TINYINT|SMALLINT|MEDIUMINT|INTEGER|INT|BIGINT)(\s+UNSIGNED)?\s+AUTO_INCREMENT`)
)

// serialFor maps the integer type an AUTO_INCREMENT column was declared
// with to its SERIAL-family equivalent.
func serialFor(baseType string) string {
	switch strings.ToUpper(strings.TrimSpace(baseType)) {
	case "BIGINT":
		return "BIGSERIAL"
	default:
		return "SERIAL"
	}
}

// codeOnly flattens a statement's code spans into one string, replacing
// literal and comment spans with a single space, so keyword positions
// can be tested without false hits inside strings.
func codeOnly(sql string) string {
	var b strings.Builder
	for _, sp := range scanSpans(sql) {
		if sp.kind == spanCode {
			b.WriteString(sp.text)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// isMultiTableUpdate detects MySQL's multi-table UPDATE forms, both the
// comma list (UPDATE a, b SET ...) and the join form (UPDATE a JOIN b
// ON ... SET ...): a JOIN keyword before the first SET keyword can only
// come from the table reference list.
func isMultiTableUpdate(sql string) bool {
	if !updatePattern.MatchString(sql) {
		return false
	}
	code := codeOnly(sql)
	if tableListCommaPattern.MatchString(code) {
		return true
	}
	join := joinWordPattern.FindStringIndex(code)
	if join == nil {
		return false
	}
	set := setWordPattern.FindStringIndex(code)
	return set == nil || join[0] < set[0]
}

// isMultiTableDelete detects MySQL's multi-table DELETE forms: an alias
// list before FROM (DELETE a FROM a JOIN b ...) or a comma in the table
// reference list (DELETE FROM a, b USING ...).
func isMultiTableDelete(sql string) bool {
	if !deletePattern.MatchString(sql) {
		return false
	}
	code := codeOnly(sql)
	fields := strings.Fields(code)
	if len(fields) >= 2 && !strings.EqualFold(fields[1], "FROM") {
		return true
	}
	return tableListCommaPattern.MatchString(code)
}

// rewrite applies the dialect-substitution pipeline to a single trimmed
// statement and returns either the rewritten SQL or a translation error
// for constructs the gateway refuses outright.
func rewrite(sql string) (string, *gwerr.GatewayError) {
	trimmed := strings.TrimSpace(sql)

	if replaceIntoPattern.MatchString(trimmed) {
		return "", unsupported("REPLACE INTO is not supported; use INSERT ... ON CONFLICT")
	}
	if isMultiTableUpdate(trimmed) {
		return "", unsupported("multi-table UPDATE is not supported")
	}
	if isMultiTableDelete(trimmed) {
		return "", unsupported("multi-table DELETE is not supported")
	}

	isDDL := createTablePattern.MatchString(trimmed) || alterTablePattern.MatchString(trimmed)

	out := rewriteCode(trimmed, func(code string) string {
		if isDDL {
			code = autoIncrementColumnPattern.ReplaceAllStringFunc(code, func(m string) string {
				sub := autoIncrementColumnPattern.FindStringSubmatch(m)
				return serialFor(sub[1])
			})

			for _, r := range typeRules {
				code = r.pattern.ReplaceAllString(code, r.replace)
			}
			code = enumPattern.ReplaceAllString(code, "TEXT")
			code = setPattern.ReplaceAllString(code, "TEXT")

			code = autoIncrementPattern.ReplaceAllString(code, "")
			code = unsignedPattern.ReplaceAllString(code, "")
			code = onUpdateNowPattern.ReplaceAllString(code, "")
			code = engineSuffixPattern.ReplaceAllString(code, "")
			code = charsetSuffixPattern.ReplaceAllString(code, "")
			code = collateSuffixPattern.ReplaceAllString(code, "")
		}

		for _, r := range funcRules {
			code = r.pattern.ReplaceAllString(code, r.replace)
		}
		code = ifnullPattern.ReplaceAllString(code, "COALESCE(")
		code = unhexPattern.ReplaceAllString(code, hexMarker+"decode(")
		code = hexPattern.ReplaceAllString(code, hexMarker+"encode(")
		return code
	})

	if insertIgnorePattern.MatchString(out) {
		out = insertIgnorePattern.ReplaceAllString(out, "INSERT")
		out = strings.TrimRight(out, " \t\n;") + " ON CONFLICT DO NOTHING"
	}

	return addHexArgs(out), nil
}

// hexMarker tags the decode(/encode( calls this rewrite produced from
// UNHEX(/HEX(, so addHexArgs doesn't touch calls the client wrote
// itself. The byte cannot occur in a code span of legal SQL.
const hexMarker = "\x01"

// addHexArgs turns each marked single-argument decode(/encode( call
// into its two-argument form by locating the matching close paren and
// inserting the 'hex' format argument, since a regular expression alone
// cannot balance parens. Innermost calls are finished first so nested
// HEX(UNHEX(...)) shapes come out right.
func addHexArgs(sql string) string {
	for {
		idx := strings.LastIndex(sql, hexMarker)
		if idx < 0 {
			return sql
		}
		sql = sql[:idx] + insertHexArg(sql[idx+len(hexMarker):])
	}
}

func insertHexArg(body string) string {
	open := strings.IndexByte(body, '(')
	if open < 0 {
		return body
	}
	depth := 0
	for i := open; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i > open {
			return body[:i] + ", 'hex'" + body[i:]
		}
	}
	return body
}
