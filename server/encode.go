package server

import (
	"pgmy/gwerr"
	"pgmy/mysqlproto"
	"pgmy/resultset"
)

// writeOK emits an OK packet: affected rows, last-insert-id, status
// flags, warnings.
func writeOK(w *mysqlproto.Writer, ok resultset.OK) error {
	var b mysqlproto.Builder
	b.WriteByte(mysqlproto.HeaderOK)
	b.WriteLenEncInt(ok.AffectedRows)
	b.WriteLenEncInt(ok.LastInsertID)
	b.WriteFixedInt(uint64(mysqlproto.ServerStatusAutocommit), 2)
	b.WriteFixedInt(uint64(ok.Warnings), 2)
	return w.WritePacket(b.Bytes())
}

// writeErr emits an ERR packet: header 0xFF, error code,
// SQL state marker '#', 5-byte SQLSTATE, message.
func writeErr(w *mysqlproto.Writer, ge *gwerr.GatewayError) error {
	var b mysqlproto.Builder
	b.WriteByte(mysqlproto.HeaderErr)
	b.WriteFixedInt(uint64(ge.Code), 2)
	b.WriteByte('#')
	state := ge.SQLState
	if len(state) != 5 {
		state = "HY000"
	}
	b.WriteBytes([]byte(state))
	b.WriteBytes([]byte(ge.Message))
	return w.WritePacket(b.Bytes())
}

// writeEOF emits the EOF marker packet used to terminate the column
// definitions and the row list. The newer OK-with-EOF-flag variant is
// not used.
func writeEOF(w *mysqlproto.Writer) error {
	var b mysqlproto.Builder
	b.WriteByte(mysqlproto.HeaderEOF)
	b.WriteFixedInt(0, 2) // warnings
	b.WriteFixedInt(uint64(mysqlproto.ServerStatusAutocommit), 2)
	return w.WritePacket(b.Bytes())
}

// writeResultSet emits the full column-count + column-definitions +
// EOF + rows + EOF sequence for a row result. An empty Set (zero rows)
// still emits all the framing packets; the protocol never
// distinguishes "no rows" from "a query that happens to need rows" at
// this layer.
func writeResultSet(w *mysqlproto.Writer, schema string, set *resultset.Set) error {
	var countB mysqlproto.Builder
	countB.WriteLenEncInt(uint64(len(set.Columns)))
	if err := w.WritePacket(countB.Bytes()); err != nil {
		return err
	}

	for _, col := range set.Columns {
		if err := w.WritePacket(encodeColumnDef(schema, col)); err != nil {
			return err
		}
	}
	if err := writeEOF(w); err != nil {
		return err
	}

	for _, row := range set.Rows {
		var rb mysqlproto.Builder
		for _, val := range row {
			if val == nil {
				rb.WriteLenEncStringNull()
			} else {
				rb.WriteLenEncString(string(val))
			}
		}
		if err := w.WritePacket(rb.Bytes()); err != nil {
			return err
		}
	}
	return writeEOF(w)
}

// encodeColumnDef builds one column-definition packet: catalog "def",
// schema, table (left empty —
// the gateway doesn't track source-table provenance through the
// translator), name, charset, column length, type code, flags, decimals.
func encodeColumnDef(schema string, col resultset.Column) []byte {
	var b mysqlproto.Builder
	b.WriteLenEncString("def")
	b.WriteLenEncString(schema)
	b.WriteLenEncString("") // table
	b.WriteLenEncString("") // org_table
	b.WriteLenEncString(col.Name)
	b.WriteLenEncString(col.Name) // org_name
	b.WriteByte(0x0c)             // length of fixed fields below
	b.WriteFixedInt(uint64(mysqlproto.CharsetUTF8MB4), 2)
	b.WriteFixedInt(uint64(col.Length), 4)
	b.WriteByte(col.Type)
	b.WriteFixedInt(uint64(col.Flags), 2)
	b.WriteByte(0) // decimals
	b.WriteFixedInt(0, 2)
	return b.Bytes()
}
