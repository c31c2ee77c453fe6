// Package resultset defines the shape a result set takes between the
// translator/executor and the protocol session that encodes it onto the
// wire: column descriptors plus rows already formatted to their MySQL
// textual form.
package resultset

import "pgmy/mysqlproto"

// Column describes one column of a row set the way it will be sent to
// the MySQL client.
type Column struct {
	Name   string
	Type   byte // one of mysqlproto.Type*
	Length uint32
	Flags  byte
}

// Set is a complete, ready-to-encode row result: column descriptors plus
// every row, each value already formatted to its MySQL textual form (or
// nil for SQL NULL).
type Set struct {
	Columns []Column
	Rows    [][][]byte
}

// NewSingleRow builds a one-column, one-row Set, the shape most
// intercepted statements answer with.
func NewSingleRow(colName string, colType byte, value []byte) *Set {
	return &Set{
		Columns: []Column{{Name: colName, Type: colType, Length: 255}},
		Rows:    [][][]byte{{value}},
	}
}

// OK describes a no-row-set outcome: affected row count, best-effort
// last-insert-id, and warning count.
type OK struct {
	AffectedRows uint64
	LastInsertID uint64
	Warnings     uint16
}

// NotNullFlag and PriKeyFlag mirror mysqlproto's column flag bits so
// callers outside mysqlproto don't need to import it just for these.
const (
	NotNullFlag = mysqlproto.FlagNotNull
	PriKeyFlag  = mysqlproto.FlagPriKey
)
