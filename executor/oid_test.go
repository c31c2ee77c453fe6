package executor

import (
	"bytes"
	"testing"

	"pgmy/mysqlproto"
)

func TestMysqlTypeForOID(t *testing.T) {
	cases := []struct {
		oid  uint32
		want byte
	}{
		{oidInt2, mysqlproto.TypeShort},
		{oidInt4, mysqlproto.TypeLong},
		{oidInt8, mysqlproto.TypeLongLong},
		{oidFloat4, mysqlproto.TypeFloat},
		{oidFloat8, mysqlproto.TypeDouble},
		{oidNumeric, mysqlproto.TypeDecimal},
		{oidBool, mysqlproto.TypeTiny},
		{oidText, mysqlproto.TypeVarString},
		{oidVarchar, mysqlproto.TypeVarString},
		{oidBytea, mysqlproto.TypeBlob},
		{oidDate, mysqlproto.TypeDate},
		{oidTime, mysqlproto.TypeTime},
		{oidTimestamp, mysqlproto.TypeDatetime},
		{oidTimestampTz, mysqlproto.TypeDatetime},
		{oidJSONB, mysqlproto.TypeVarString},
		{999999, mysqlproto.TypeVarString}, // unknown OID falls back to VAR_STRING
	}
	for _, tc := range cases {
		if got := mysqlTypeForOID(tc.oid); got != tc.want {
			t.Errorf("mysqlTypeForOID(%d) = %#x, want %#x", tc.oid, got, tc.want)
		}
	}
}

func TestFormatValueBool(t *testing.T) {
	if got := formatValue(oidBool, []byte("t")); string(got) != "1" {
		t.Fatalf("bool true: got %q", got)
	}
	if got := formatValue(oidBool, []byte("f")); string(got) != "0" {
		t.Fatalf("bool false: got %q", got)
	}
}

func TestFormatValueNull(t *testing.T) {
	if got := formatValue(oidInt4, nil); got != nil {
		t.Fatalf("NULL should stay nil, got %q", got)
	}
}

func TestFormatValueBytea(t *testing.T) {
	got := formatValue(oidBytea, []byte(`\x48656c6c6f`))
	if !bytes.Equal(got, []byte("Hello")) {
		t.Fatalf("bytea decode: got %q, want %q", got, "Hello")
	}
}

func TestFormatValuePassthrough(t *testing.T) {
	if got := formatValue(oidText, []byte("hello")); string(got) != "hello" {
		t.Fatalf("text passthrough: got %q", got)
	}
	if got := formatValue(oidDate, []byte("2026-08-03")); string(got) != "2026-08-03" {
		t.Fatalf("date passthrough: got %q", got)
	}
}
