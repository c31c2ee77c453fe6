package gwerr

import (
	"strings"
	"testing"
)

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		kind  Kind
		fatal bool
	}{
		{KindTranslation, false},
		{KindBackendSyntax, false},
		{KindBackendConnection, true},
		{KindProtocol, true},
		{KindAuth, true},
		{KindInternal, true},
	}
	for _, tc := range cases {
		if got := tc.kind.Fatal(); got != tc.fatal {
			t.Errorf("Kind(%d).Fatal() = %v, want %v", tc.kind, got, tc.fatal)
		}
	}
}

func TestConstructorsSetExpectedCodes(t *testing.T) {
	if e := Translation("bad sql"); e.Code != 1064 || e.SQLState != "42000" {
		t.Errorf("Translation: got code=%d state=%s", e.Code, e.SQLState)
	}
	if e := BackendConnection("lost"); e.Code != 2013 || e.SQLState != "HY000" {
		t.Errorf("BackendConnection: got code=%d state=%s", e.Code, e.SQLState)
	}
	if e := Auth("denied"); e.Code != 1045 || e.SQLState != "28000" {
		t.Errorf("Auth: got code=%d state=%s", e.Code, e.SQLState)
	}
	if e := Protocol("bad command"); e.Code != 1047 {
		t.Errorf("Protocol: got code=%d", e.Code)
	}
	if e := Internal("bug"); e.Code != 1105 {
		t.Errorf("Internal: got code=%d", e.Code)
	}
}

func TestErrorStringIncludesMessage(t *testing.T) {
	e := Translation("syntax error near %q", "FOO")
	if got := e.Error(); !strings.Contains(got, e.Message) {
		t.Fatalf("error string %q does not include message %q", got, e.Message)
	}
}
