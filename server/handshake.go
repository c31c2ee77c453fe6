package server

import (
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"fmt"

	"pgmy/mysqlproto"
	"pgmy/version"
)

// generateScramble returns 20 bytes of server-chosen randomness used
// as the native-password challenge, fresh for every handshake.
func generateScramble() ([20]byte, error) {
	var s [20]byte
	if _, err := rand.Read(s[:]); err != nil {
		return s, err
	}
	// The scramble must not itself contain a NUL byte: it is sent to the
	// client split across two NUL-terminated-adjacent fields in the
	// handshake packet, and a stray 0 would truncate it early.
	for i, b := range s {
		if b == 0 {
			s[i] = 1
		}
	}
	return s, nil
}

// buildHandshakePacket encodes the v10 Initial Handshake Packet:
// protocol version 10, server version string, connection id, the
// 20-byte scramble split scramble1(8)+filler+scramble2(12), the
// advertised capability bitmap, utf8mb4 charset, AUTOCOMMIT status, and
// the mysql_native_password plugin name.
func buildHandshakePacket(connID uint32, scramble [20]byte) []byte {
	var b mysqlproto.Builder
	b.WriteByte(mysqlproto.ProtocolVersion10)
	b.WriteNulString(version.Server)
	b.WriteFixedInt(uint64(connID), 4)
	b.WriteBytes(scramble[0:8])
	b.WriteByte(0) // filler
	b.WriteFixedInt(uint64(mysqlproto.ServerCapabilities&0xffff), 2)
	b.WriteByte(mysqlproto.CharsetUTF8MB4)
	b.WriteFixedInt(uint64(mysqlproto.ServerStatusAutocommit), 2)
	b.WriteFixedInt(uint64(mysqlproto.ServerCapabilities>>16), 2)
	b.WriteByte(21) // length of auth-plugin-data (scramble + NUL)
	b.WriteBytes(make([]byte, 10))
	b.WriteBytes(scramble[8:20])
	b.WriteByte(0) // NUL terminator for auth-plugin-data-part-2
	b.WriteNulString("mysql_native_password")
	return b.Bytes()
}

// handshakeResponse is the parsed form of the client's Handshake
// Response packet.
type handshakeResponse struct {
	Capabilities uint32
	Username     string
	AuthResponse []byte
	Database     string
	PluginName   string
}

// parseHandshakeResponse decodes a CLIENT_PROTOCOL_41-shaped Handshake
// Response. The auth-response is read length-prefixed when the client
// sets CLIENT_SECURE_CONNECTION (as the gateway advertises) and
// NUL-terminated otherwise.
func parseHandshakeResponse(payload []byte) (*handshakeResponse, error) {
	d := mysqlproto.NewDecoder(payload)

	caps, err := d.ReadFixedInt(4)
	if err != nil {
		return nil, fmt.Errorf("read capabilities: %w", err)
	}
	if _, err := d.ReadFixedInt(4); err != nil { // max packet size
		return nil, fmt.Errorf("read max packet size: %w", err)
	}
	if _, err := d.ReadByte(); err != nil { // character set
		return nil, fmt.Errorf("read charset: %w", err)
	}
	if _, err := d.ReadBytes(23); err != nil { // reserved
		return nil, fmt.Errorf("read reserved: %w", err)
	}

	username, err := d.ReadNulString()
	if err != nil {
		return nil, fmt.Errorf("read username: %w", err)
	}

	var authResponse []byte
	if uint32(caps)&mysqlproto.ClientSecureConn != 0 {
		n, err := d.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read auth-response length: %w", err)
		}
		authResponse, err = d.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("read auth-response: %w", err)
		}
	} else {
		s, err := d.ReadNulString()
		if err != nil {
			return nil, fmt.Errorf("read auth-response: %w", err)
		}
		authResponse = []byte(s)
	}

	var database string
	if uint32(caps)&mysqlproto.ClientConnectWithDB != 0 {
		database, err = d.ReadNulString()
		if err != nil {
			return nil, fmt.Errorf("read database: %w", err)
		}
	}

	var plugin string
	if uint32(caps)&mysqlproto.ClientPluginAuth != 0 {
		plugin, _ = d.ReadNulString() // optional tail; absence is tolerated
	}

	return &handshakeResponse{
		Capabilities: uint32(caps),
		Username:     username,
		AuthResponse: authResponse,
		Database:     database,
		PluginName:   plugin,
	}, nil
}

// verifyNativePassword checks the client's auth-response against the
// MySQL native-password formula:
//
//	expected = SHA1(password) XOR SHA1( scramble || SHA1( SHA1(password) ) )
func verifyNativePassword(password string, scramble [20]byte, clientResponse []byte) bool {
	if password == "" {
		// An empty password is answered with an empty auth-response.
		return len(clientResponse) == 0
	}
	if len(clientResponse) != sha1.Size {
		return false
	}
	sha1pw := sha1.Sum([]byte(password))
	sha1sha1pw := sha1.Sum(sha1pw[:])

	h := sha1.New()
	h.Write(scramble[:])
	h.Write(sha1sha1pw[:])
	step2 := h.Sum(nil)

	expected := make([]byte, sha1.Size)
	for i := range expected {
		expected[i] = sha1pw[i] ^ step2[i]
	}
	return bytes.Equal(expected, clientResponse)
}
