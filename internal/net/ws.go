package net

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/virtu333/rogue-emblem-sub003/internal/session"
)

type clientMessage struct {
	Ver     int              `json:"ver,omitempty"`
	Type    string           `json:"type"`
	Seq     *uint64          `json:"seq,omitempty"`
	SentAt  int64            `json:"sentAt"`
	Command *session.Command `json:"command,omitempty"`
}

type helloMessage struct {
	Ver          int             `json:"ver"`
	Type         string          `json:"type"`
	ConnectionID string          `json:"connectionId"`
	Run          json.RawMessage `json:"run,omitempty"`
}

type commandAckMessage struct {
	Ver    int            `json:"ver"`
	Type   string         `json:"type"`
	Seq    uint64         `json:"seq"`
	Result session.Result `json:"result"`
}

type commandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// commandHandler runs one websocket connection per Serve call against a
// shared session. Commands are acknowledged by seq; a seq at or below the
// last acknowledged one is acked again without re-executing.
type commandHandler struct {
	mgr    *session.Manager
	logger *log.Logger
}

func newCommandHandler(mgr *session.Manager, logger *log.Logger) *commandHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &commandHandler{mgr: mgr, logger: logger}
}

type connection struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	lastSeq uint64
	results map[uint64]session.Result
}

func (c *connection) writeJSON(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (h *commandHandler) Serve(conn *websocket.Conn) {
	if h == nil || conn == nil {
		return
	}
	defer conn.Close()

	c := &connection{id: uuid.NewString(), conn: conn, results: map[uint64]session.Result{}}
	hello := helloMessage{Ver: ProtocolVersion, Type: "hello", ConnectionID: c.id}
	if snapshot, err := h.mgr.Snapshot(); err == nil {
		hello.Run = snapshot
	}
	if err := c.writeJSON(hello); err != nil {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", c.id, err)
			continue
		}

		switch msg.Type {
		case "command":
			if !h.handleCommand(c, msg) {
				return
			}
		case "heartbeat":
			now := time.Now()
			ack := heartbeatMessage{
				Ver:        ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
			}
			if msg.SentAt > 0 {
				ack.RTTMillis = now.UnixMilli() - msg.SentAt
			}
			if err := c.writeJSON(ack); err != nil {
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, c.id)
		}
	}
}

// resultCacheSize bounds how many acked results a connection remembers
// for duplicate replays.
const resultCacheSize = 64

// reasonUnknownSeq rejects a replayed seq whose result is no longer cached.
const reasonUnknownSeq = "unknown_seq"

func (h *commandHandler) handleCommand(c *connection, msg clientMessage) bool {
	seq := uint64(0)
	if msg.Seq != nil {
		seq = *msg.Seq
	}
	if seq > 0 && c.lastSeq > 0 && seq <= c.lastSeq {
		prev, ok := c.results[seq]
		if !ok {
			// Evicted from the replay window, or never acknowledged.
			return c.writeJSON(commandRejectMessage{Ver: ProtocolVersion, Type: "commandReject", Seq: seq, Reason: reasonUnknownSeq}) == nil
		}
		if !prev.OK {
			return c.writeJSON(commandRejectMessage{Ver: ProtocolVersion, Type: "commandReject", Seq: seq, Reason: prev.Reason}) == nil
		}
		ack := commandAckMessage{Ver: ProtocolVersion, Type: "commandAck", Seq: seq, Result: prev}
		return c.writeJSON(ack) == nil
	}
	if msg.Command == nil {
		if seq == 0 {
			return true
		}
		return c.writeJSON(commandRejectMessage{Ver: ProtocolVersion, Type: "commandReject", Seq: seq, Reason: "missing_command"}) == nil
	}

	res, err := h.mgr.Do(context.Background(), *msg.Command)
	if err != nil {
		if !errors.Is(err, session.ErrNoActiveRun) && !errors.Is(err, session.ErrUnknownCommand) {
			h.logger.Printf("command %s from %s failed: %v", msg.Command.Type, c.id, err)
		}
		if seq == 0 {
			return true
		}
		reject := commandRejectMessage{
			Ver:    ProtocolVersion,
			Type:   "commandReject",
			Seq:    seq,
			Reason: res.Reason,
			Retry:  res.Reason == session.ReasonPersistFailed,
		}
		return c.writeJSON(reject) == nil
	}
	if seq == 0 {
		return true
	}
	if !res.OK {
		reject := commandRejectMessage{Ver: ProtocolVersion, Type: "commandReject", Seq: seq, Reason: res.Reason}
		if err := c.writeJSON(reject); err != nil {
			return false
		}
		c.remember(seq, res)
		return true
	}
	if err := c.writeJSON(commandAckMessage{Ver: ProtocolVersion, Type: "commandAck", Seq: seq, Result: res}); err != nil {
		return false
	}
	c.remember(seq, res)
	return true
}

func (c *connection) remember(seq uint64, res session.Result) {
	c.lastSeq = seq
	c.results[seq] = res
	for old := range c.results {
		if old+resultCacheSize <= seq {
			delete(c.results, old)
		}
	}
}
