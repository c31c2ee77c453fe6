package server

import (
	"crypto/sha1"
	"testing"

	"pgmy/mysqlproto"
)

// officialNativePasswordResponse computes the client side of the
// challenge-response, used here purely to generate a known-good
// response for the verifier tests below.
func officialNativePasswordResponse(password string, scramble [20]byte) []byte {
	sha1pw := sha1.Sum([]byte(password))
	sha1sha1pw := sha1.Sum(sha1pw[:])

	h := sha1.New()
	h.Write(scramble[:])
	h.Write(sha1sha1pw[:])
	step2 := h.Sum(nil)

	out := make([]byte, sha1.Size)
	for i := range out {
		out[i] = sha1pw[i] ^ step2[i]
	}
	return out
}

func fixedScramble() [20]byte {
	var s [20]byte
	hexBytes := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
		0x11, 0x12, 0x13, 0x14,
	}
	copy(s[:], hexBytes)
	return s
}

func TestVerifyNativePasswordAccepts(t *testing.T) {
	scramble := fixedScramble()
	resp := officialNativePasswordResponse("password", scramble)
	if !verifyNativePassword("password", scramble, resp) {
		t.Fatal("expected the official formula's response to verify")
	}
}

func TestVerifyNativePasswordRejectsWrongPassword(t *testing.T) {
	scramble := fixedScramble()
	resp := officialNativePasswordResponse("password", scramble)
	if verifyNativePassword("not-the-password", scramble, resp) {
		t.Fatal("expected wrong password to be rejected")
	}
}

func TestVerifyNativePasswordRejectsTamperedResponse(t *testing.T) {
	scramble := fixedScramble()
	resp := officialNativePasswordResponse("password", scramble)
	resp[0] ^= 0xFF
	if verifyNativePassword("password", scramble, resp) {
		t.Fatal("expected tampered response to be rejected")
	}
}

func TestVerifyNativePasswordRejectsWrongLength(t *testing.T) {
	scramble := fixedScramble()
	if verifyNativePassword("password", scramble, []byte{1, 2, 3}) {
		t.Fatal("expected non-SHA1-length response to be rejected")
	}
}

func TestGenerateScrambleNoNulBytes(t *testing.T) {
	s, err := generateScramble()
	if err != nil {
		t.Fatalf("generateScramble: %v", err)
	}
	for i, b := range s {
		if b == 0 {
			t.Fatalf("scramble byte %d is NUL", i)
		}
	}
}

func TestBuildHandshakePacketShape(t *testing.T) {
	scramble := fixedScramble()
	pkt := buildHandshakePacket(7, scramble)
	if pkt[0] != 10 {
		t.Fatalf("protocol version: got %d, want 10", pkt[0])
	}
}

func TestParseHandshakeResponseRoundTrip(t *testing.T) {
	scramble := fixedScramble()
	resp := officialNativePasswordResponse("password", scramble)

	payload := encodeTestHandshakeResponse(t, "admin", resp, "shop")
	parsed, err := parseHandshakeResponse(payload)
	if err != nil {
		t.Fatalf("parseHandshakeResponse: %v", err)
	}
	if parsed.Username != "admin" {
		t.Fatalf("username: got %q", parsed.Username)
	}
	if parsed.Database != "shop" {
		t.Fatalf("database: got %q", parsed.Database)
	}
	if string(parsed.AuthResponse) != string(resp) {
		t.Fatalf("auth response mismatch")
	}
}

// encodeTestHandshakeResponse builds a minimal
// CLIENT_PROTOCOL_41-shaped Handshake Response payload for the
// round-trip test above.
func encodeTestHandshakeResponse(t *testing.T, user string, authResp []byte, db string) []byte {
	t.Helper()
	var buf []byte
	caps := mysqlproto.ClientProtocol41 | mysqlproto.ClientSecureConn | mysqlproto.ClientConnectWithDB | mysqlproto.ClientPluginAuth
	buf = append(buf, byte(caps), byte(caps>>8), byte(caps>>16), byte(caps>>24))
	buf = append(buf, 0, 0, 0, 1) // max packet size
	buf = append(buf, 45)         // charset
	buf = append(buf, make([]byte, 23)...)
	buf = append(buf, user...)
	buf = append(buf, 0)
	buf = append(buf, byte(len(authResp)))
	buf = append(buf, authResp...)
	buf = append(buf, db...)
	buf = append(buf, 0)
	return buf
}
