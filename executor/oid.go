package executor

import "pgmy/mysqlproto"

// PostgreSQL builtin type OIDs the gateway recognizes, named the way
// pgtype's own OID constants are named.
const (
	oidBool        uint32 = 16
	oidBytea       uint32 = 17
	oidName        uint32 = 19
	oidInt8        uint32 = 20
	oidInt2        uint32 = 21
	oidInt4        uint32 = 23
	oidText        uint32 = 25
	oidJSON        uint32 = 114
	oidJSONArray   uint32 = 199
	oidFloat4      uint32 = 700
	oidFloat8      uint32 = 701
	oidUnknown     uint32 = 705
	oidBPChar      uint32 = 1042
	oidVarchar     uint32 = 1043
	oidDate        uint32 = 1082
	oidTime        uint32 = 1083
	oidTimestamp   uint32 = 1114
	oidTimestampTz uint32 = 1184
	oidNumeric     uint32 = 1700
	oidJSONB       uint32 = 3802
	oidJSONBArray  uint32 = 3807
)

// mysqlTypeForOID maps a PostgreSQL column OID to the MySQL column
// type code the gateway advertises for it. Anything outside the named
// set falls back to VAR_STRING.
func mysqlTypeForOID(oid uint32) byte {
	switch oid {
	case oidInt2:
		return mysqlproto.TypeShort
	case oidInt4:
		return mysqlproto.TypeLong
	case oidInt8:
		return mysqlproto.TypeLongLong
	case oidFloat4:
		return mysqlproto.TypeFloat
	case oidFloat8:
		return mysqlproto.TypeDouble
	case oidNumeric:
		return mysqlproto.TypeDecimal
	case oidBool:
		return mysqlproto.TypeTiny
	case oidText, oidVarchar, oidBPChar, oidName:
		return mysqlproto.TypeVarString
	case oidBytea:
		return mysqlproto.TypeBlob
	case oidDate:
		return mysqlproto.TypeDate
	case oidTime:
		return mysqlproto.TypeTime
	case oidTimestamp, oidTimestampTz:
		return mysqlproto.TypeDatetime
	case oidJSON, oidJSONB, oidJSONArray, oidJSONBArray:
		return mysqlproto.TypeVarString
	default:
		return mysqlproto.TypeVarString
	}
}

// formatValue converts a raw text-format PostgreSQL value (as returned
// by pgx in simple-query mode) into the textual/byte form the MySQL
// wire protocol row packet expects for that column's OID. nil stays nil
// (SQL NULL).
func formatValue(oid uint32, raw []byte) []byte {
	if raw == nil {
		return nil
	}
	switch oid {
	case oidBool:
		if len(raw) > 0 && (raw[0] == 't' || raw[0] == 'T') {
			return []byte("1")
		}
		return []byte("0")
	case oidBytea:
		return decodeHexBytea(raw)
	default:
		return raw
	}
}

// decodeHexBytea undoes PostgreSQL's text-format bytea encoding
// (`\x<hex>`), falling back to returning the input untouched if it isn't
// in that shape (the legacy escape format is not produced by a server
// configured with the default bytea_output=hex, so it isn't handled
// here).
func decodeHexBytea(raw []byte) []byte {
	if len(raw) < 2 || raw[0] != '\\' || raw[1] != 'x' {
		return raw
	}
	hexPart := raw[2:]
	out := make([]byte, len(hexPart)/2)
	for i := range out {
		hi := hexVal(hexPart[2*i])
		lo := hexVal(hexPart[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
