// Package server implements the client-facing half of the gateway: the
// TCP accept loop and the per-connection session state machine that
// performs the MySQL handshake, authenticates the client, and runs the
// command loop, routing each COM_QUERY through the translator and the
// PostgreSQL executor.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"

	"pgmy/config"
	"pgmy/executor"
	"pgmy/gwerr"
	"pgmy/mysqlproto"
	"pgmy/resultset"
	"pgmy/translator"
)

// phase tracks where a Connection is in its lifecycle.
type phase int

const (
	phaseAwaitingHandshakeResponse phase = iota
	phaseCommand
	phaseClosed
)

// backend is what the command loop needs from the executor. Tests
// substitute a stub to drive the wire protocol without a running
// PostgreSQL server.
type backend interface {
	Exec(ctx context.Context, sql string) (*executor.Result, *gwerr.GatewayError)
	Close(ctx context.Context) error
}

// dialFunc acquires the backend connection a session owns for its
// lifetime.
type dialFunc func(ctx context.Context, dsn string) (backend, error)

// Connection holds the per-socket session state. It is owned
// exclusively by the goroutine running Handle, together with the one
// backend connection it acquires at authentication time and releases at
// close.
type Connection struct {
	conn   net.Conn
	reader *mysqlproto.Reader
	writer *mysqlproto.Writer
	cfg    *config.Config
	dial   dialFunc

	phase        phase
	capabilities uint32
	currentDB    string
	scramble     [20]byte
	authUser     string
	connID       uint32
	peerAddr     string

	exec backend
}

func newConnection(conn net.Conn, cfg *config.Config, connID uint32) *Connection {
	return &Connection{
		conn:     conn,
		reader:   mysqlproto.NewReader(conn),
		writer:   mysqlproto.NewWriter(conn),
		cfg:      cfg,
		dial:     dialExecutor,
		phase:    phaseAwaitingHandshakeResponse,
		connID:   connID,
		peerAddr: conn.RemoteAddr().String(),
	}
}

func dialExecutor(ctx context.Context, dsn string) (backend, error) {
	return executor.Connect(ctx, dsn)
}

// Handle runs the full connection lifecycle and closes the socket (and
// the owned backend connection, if acquired) on return.
func (c *Connection) Handle() {
	defer c.conn.Close()

	if err := c.handshakeAndAuth(); err != nil {
		if c.cfg.LogLevel > 0 {
			log.Printf("connection %s: %v", c.peerAddr, err)
		}
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		c.exec.Close(ctx)
	}()

	if c.cfg.LogLevel > 0 {
		log.Printf("connection %s: authenticated as %s", c.peerAddr, c.authUser)
	}
	c.commandLoop()
	if c.cfg.LogLevel > 0 {
		log.Printf("connection %s: disconnected", c.peerAddr)
	}
}

// handshakeAndAuth sends the Initial Handshake Packet, reads the
// client's Handshake Response, verifies native-password credentials,
// and on success dials the backend connection this session owns for its
// lifetime.
func (c *Connection) handshakeAndAuth() error {
	scramble, err := generateScramble()
	if err != nil {
		return fmt.Errorf("generate scramble: %w", err)
	}
	c.scramble = scramble

	c.writer.Reset(0)
	if err := c.writer.WritePacket(buildHandshakePacket(c.connID, scramble)); err != nil {
		return fmt.Errorf("write handshake: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return err
	}

	payload, err := c.reader.ReadPacket()
	if err != nil {
		return fmt.Errorf("read handshake response: %w", err)
	}
	resp, err := parseHandshakeResponse(payload)
	if err != nil {
		return fmt.Errorf("parse handshake response: %w", err)
	}
	c.capabilities = resp.Capabilities & mysqlproto.ServerCapabilities

	c.writer.Reset(c.reader.LastSeq() + 1)
	if !verifyNativePassword(c.cfg.MySQLPassword, scramble, resp.AuthResponse) || resp.Username != c.cfg.MySQLUsername {
		ge := gwerr.Auth("Access denied for user '%s'", resp.Username)
		writeErr(c.writer, ge)
		c.writer.Flush()
		return fmt.Errorf("authentication failed for user %q", resp.Username)
	}

	c.authUser = resp.Username
	c.currentDB = resp.Database

	be, err := c.dial(context.Background(), c.cfg.BackendDSN())
	if err != nil {
		ge := gwerr.BackendConnection("%v", err)
		writeErr(c.writer, ge)
		c.writer.Flush()
		return fmt.Errorf("connect backend: %w", err)
	}
	if ex, ok := be.(*executor.Executor); ok && c.cfg.LogLevel >= 2 {
		ex.Trace = func(tr executor.Trace) {
			log.Printf("connection %s: %s (%v, %d rows)", c.peerAddr, tr.StmtType, tr.Total, tr.RowsReturned)
		}
	}
	c.exec = be

	if err := writeOK(c.writer, resultset.OK{}); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		return err
	}
	c.phase = phaseCommand
	return nil
}

// commandLoop reads and dispatches COM_* packets until the client
// disconnects, sends COM_QUIT, or a fatal error is reported.
func (c *Connection) commandLoop() {
	for c.phase == phaseCommand {
		payload, err := c.reader.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) && c.cfg.LogLevel > 0 {
				log.Printf("connection %s: read: %v", c.peerAddr, err)
			}
			return
		}
		c.writer.Reset(c.reader.LastSeq() + 1)

		if len(payload) == 0 {
			continue
		}
		if !c.dispatch(payload[0], payload[1:]) {
			return
		}
	}
}

// dispatch handles one command byte, returning false when the
// connection should close. An unknown command byte is answered with an
// ERR packet but keeps the session alive.
func (c *Connection) dispatch(cmd byte, rest []byte) bool {
	switch cmd {
	case mysqlproto.ComQuit:
		return false

	case mysqlproto.ComInitDB:
		c.currentDB = strings.TrimSpace(string(rest))
		return c.reply(writeOK(c.writer, resultset.OK{}))

	case mysqlproto.ComQuery:
		return c.handleQuery(string(rest))

	case mysqlproto.ComPing:
		return c.reply(writeOK(c.writer, resultset.OK{}))

	default:
		ge := gwerr.Protocol("unsupported command 0x%02x", cmd)
		return c.reply(writeErr(c.writer, ge))
	}
}

// handleQuery routes a COM_QUERY payload through the translator and
// executor and emits exactly one response: a result set, an OK, or an
// ERR packet. A payload may contain several top-level ';'-separated
// statements; they execute in order, intermediate row results are
// discarded, and the final OK carries the last statement's affected-row
// count plus the last insert id observed anywhere in the batch.
func (c *Connection) handleQuery(sql string) bool {
	tctx := translator.Context{
		CurrentDB:    c.currentDB,
		User:         c.authUser,
		PeerAddr:     c.peerAddr,
		ConnectionID: c.connID,
	}
	translated := translator.Translate(sql, tctx)

	var last resultset.OK
	var lastSet *resultset.Set
	var lastInsertID uint64
	for i, stmt := range translated.Statements {
		final := i == len(translated.Statements)-1

		switch stmt.Kind {
		case translator.KindError:
			return c.reply(writeErr(c.writer, stmt.Err))

		case translator.KindIntercepted:
			if final {
				return c.reply(writeResultSet(c.writer, c.currentDB, stmt.Result))
			}

		case translator.KindNoOp:
			if stmt.UseDB != "" {
				c.currentDB = stmt.UseDB
			}
			last = resultset.OK{}
			lastSet = nil

		case translator.KindForwarded:
			res, ge := c.exec.Exec(context.Background(), stmt.SQL)
			if ge != nil {
				if !c.reply(writeErr(c.writer, ge)) {
					return false
				}
				return !ge.Kind.Fatal()
			}
			if res.Set != nil {
				lastSet = res.Set
				last = resultset.OK{}
			} else {
				lastSet = nil
				last = *res.OK
				if res.OK.LastInsertID != 0 {
					lastInsertID = res.OK.LastInsertID
				}
			}
		}
	}

	if lastSet != nil {
		return c.reply(writeResultSet(c.writer, c.currentDB, lastSet))
	}
	if lastInsertID != 0 {
		last.LastInsertID = lastInsertID
	}
	return c.reply(writeOK(c.writer, last))
}

// reply flushes the writer after a handler staged one or more packets,
// reporting whether the connection should stay open. Any I/O failure at
// this point is unrecoverable for the connection.
func (c *Connection) reply(err error) bool {
	if err != nil {
		if c.cfg.LogLevel > 0 {
			log.Printf("connection %s: write: %v", c.peerAddr, err)
		}
		return false
	}
	if err := c.writer.Flush(); err != nil {
		if c.cfg.LogLevel > 0 {
			log.Printf("connection %s: flush: %v", c.peerAddr, err)
		}
		return false
	}
	return true
}
