package executor

import "time"

// Trace captures timing for a single Exec call; the session logs it
// when statement logging is enabled.
type Trace struct {
	StmtType     string
	Total        time.Duration
	RowsReturned int64
}
