// Package mysqlproto implements the MySQL client/server wire protocol:
// packet framing, primitive type encodings, and the constants needed to
// build a v10 handshake, authenticate a client, and emit query results.
package mysqlproto

// Client capability flags (subset the gateway advertises/understands).
// Mirrors mysql_com.h's CLIENT_* bitmap.
const (
	ClientLongPassword    uint32 = 1 << 0
	ClientFoundRows       uint32 = 1 << 1
	ClientLongFlag        uint32 = 1 << 2
	ClientConnectWithDB   uint32 = 1 << 3
	ClientNoSchema        uint32 = 1 << 4
	ClientCompress        uint32 = 1 << 5
	ClientODBC            uint32 = 1 << 6
	ClientLocalFiles      uint32 = 1 << 7
	ClientIgnoreSpace     uint32 = 1 << 8
	ClientProtocol41      uint32 = 1 << 9
	ClientInteractive     uint32 = 1 << 10
	ClientSSL             uint32 = 1 << 11
	ClientIgnoreSigpipe   uint32 = 1 << 12
	ClientTransactions    uint32 = 1 << 13
	ClientReserved        uint32 = 1 << 14
	ClientSecureConn      uint32 = 1 << 15
	ClientMultiStatements uint32 = 1 << 16
	ClientMultiResults    uint32 = 1 << 17
	ClientPluginAuth      uint32 = 1 << 19
)

// ServerCapabilities is the capability bitmap the gateway advertises in
// its initial handshake packet.
const ServerCapabilities = ClientProtocol41 | ClientSecureConn | ClientConnectWithDB | ClientPluginAuth

// Command bytes (first byte of a COM_QUERY-phase client packet).
const (
	ComSleep       byte = 0x00
	ComQuit        byte = 0x01
	ComInitDB      byte = 0x02
	ComQuery       byte = 0x03
	ComFieldList   byte = 0x04
	ComPing        byte = 0x0e
	ComStmtPrepare byte = 0x16
	ComStmtExecute byte = 0x17
)

// Column type codes (MYSQL_TYPE_*), restricted to the set the gateway
// produces.
const (
	TypeDecimal   byte = 0x00
	TypeTiny      byte = 0x01
	TypeShort     byte = 0x02
	TypeLong      byte = 0x03
	TypeFloat     byte = 0x04
	TypeDouble    byte = 0x05
	TypeNull      byte = 0x06
	TypeTime      byte = 0x0b
	TypeDate      byte = 0x0a
	TypeDatetime  byte = 0x0c
	TypeTimestamp byte = 0x07
	TypeLongLong  byte = 0x08
	TypeVarString byte = 0xfd
	TypeString    byte = 0xfe
	TypeBlob      byte = 0xfc
)

// Column definition flags.
const (
	FlagNotNull byte = 0x01
	FlagPriKey  byte = 0x02
)

// Response header bytes.
const (
	HeaderOK  byte = 0x00
	HeaderEOF byte = 0xfe
	HeaderErr byte = 0xff
)

// NullLengthEncoded is the length-encoded-integer lead byte that
// denotes SQL NULL within a row payload.
const NullLengthEncoded byte = 0xfb

// ServerStatusAutocommit is the only server-status bit the gateway sets.
const ServerStatusAutocommit uint16 = 0x0002

// CharsetUTF8MB4 is the handshake charset id the gateway advertises.
const CharsetUTF8MB4 byte = 45

// MaxPacketSize is the largest payload this codec will emit or accept.
// Larger payloads are rejected, not split across multiple framed packets.
const MaxPacketSize = 1<<24 - 1

// Protocol version carried in the initial handshake packet.
const ProtocolVersion10 byte = 10

// Error codes used by the session and translator.
const (
	ErrAccessDenied   uint16 = 1045
	ErrUnknownCommand uint16 = 1047
	ErrParseError     uint16 = 1064
	ErrUnknownColumn  uint16 = 1054
	ErrBadDBError     uint16 = 1049
	ErrInternalError  uint16 = 1105
	ErrBackendLost    uint16 = 2013
)
