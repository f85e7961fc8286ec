// Package oxidb is a small TCP client for oxidb-server covering the commands
// the form store needs.
//
// Wire format: every message is a 4-byte little-endian length followed by a
// JSON payload. The server answers {"ok": true, "data": ...} or
// {"ok": false, "error": "..."}.
package oxidb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// maxFrame bounds a single response so a bad length prefix cannot force a
// huge allocation.
const maxFrame = 64 << 20

// ErrBroken is returned by every request on a client whose connection failed
// mid-request. The stream may hold a stale reply, so the client must be
// replaced rather than reused.
var ErrBroken = errors.New("oxidb: connection broken")

// Client is safe for concurrent use; requests are serialized on one connection.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	mu      sync.Mutex
	broken  bool
}

// Connect dials addr (host:port). timeout bounds the dial and every request.
func Connect(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("oxidb: connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Broken reports whether a transport error has poisoned the connection.
func (c *Client) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

// fail marks the client unusable and closes its connection. Callers hold c.mu.
func (c *Client) fail() {
	c.broken = true
	c.conn.Close()
}

type response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func writeFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("oxidb: read length: %w", err)
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > maxFrame {
		return nil, fmt.Errorf("oxidb: frame of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("oxidb: read payload: %w", err)
	}
	return payload, nil
}

func (c *Client) do(cmd map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("oxidb: marshal request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken {
		return nil, ErrBroken
	}
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}
	if err := writeFrame(c.conn, body); err != nil {
		c.fail()
		return nil, fmt.Errorf("oxidb: send: %w", err)
	}
	raw, err := readFrame(c.conn)
	if err != nil {
		c.fail()
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("oxidb: unmarshal response: %w", err)
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		if strings.Contains(strings.ToLower(msg), "conflict") {
			return nil, &ConflictError{Msg: msg}
		}
		return nil, &Error{Msg: msg}
	}
	return resp.Data, nil
}

// Ping returns the server's reply, normally "pong".
func (c *Client) Ping() (string, error) {
	data, err := c.do(map[string]any{"cmd": "ping"})
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("oxidb: unexpected ping reply %s", data)
	}
	return s, nil
}

// FindOne decodes the first document matching query into dst. It reports
// false when nothing matched.
func (c *Client) FindOne(collection string, query map[string]any, dst any) (bool, error) {
	data, err := c.do(map[string]any{"cmd": "find_one", "collection": collection, "query": query})
	if err != nil {
		return false, err
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("oxidb: decode %s document: %w", collection, err)
	}
	return true, nil
}

// Insert stores doc and returns the server-assigned id, if any.
func (c *Client) Insert(collection string, doc any) (string, error) {
	data, err := c.do(map[string]any{"cmd": "insert", "collection": collection, "doc": doc})
	if err != nil {
		return "", err
	}
	var out struct {
		ID any `json:"id"`
	}
	json.Unmarshal(data, &out)
	switch v := out.ID.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", nil
}

// UpdateOne applies update (e.g. {"$set": {...}}) to at most one matching
// document and returns how many were modified.
func (c *Client) UpdateOne(collection string, query, update map[string]any) (int, error) {
	data, err := c.do(map[string]any{
		"cmd": "update_one", "collection": collection,
		"query": query, "update": update,
	})
	if err != nil {
		return 0, err
	}
	var out struct {
		Modified float64 `json:"modified"`
	}
	json.Unmarshal(data, &out)
	return int(out.Modified), nil
}

// CreateUniqueIndex creates a unique index on field.
func (c *Client) CreateUniqueIndex(collection, field string) error {
	_, err := c.do(map[string]any{"cmd": "create_unique_index", "collection": collection, "field": field})
	return err
}
