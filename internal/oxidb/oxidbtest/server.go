// Package oxidbtest runs an in-process oxidb-server stand-in for tests. It
// understands the subset of commands used by this module.
package oxidbtest

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"
)

type Server struct {
	ln   net.Listener
	mu   sync.Mutex
	cols map[string][]map[string]any
	failNext string
}

// NewServer starts a server on a loopback port and stops it on test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("oxidbtest: listen: %v", err)
	}
	s := &Server{ln: ln, cols: map[string][]map[string]any{}}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

// FailNext makes the next command answer ok=false with msg.
func (s *Server) FailNext(msg string) {
	s.mu.Lock()
	s.failNext = msg
	s.mu.Unlock()
}

// Docs returns a copy of every document stored in collection.
func (s *Server) Docs(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.cols[collection]...)
}

// Drop removes every document in collection.
func (s *Server) Drop(collection string) {
	s.mu.Lock()
	delete(s.cols, collection)
	s.mu.Unlock()
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		var hdr [4]byte
		if _, err := io.ReadFull(conn, hdr[:]); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(hdr[:]))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(payload, &req); err != nil {
			return
		}
		out, _ := json.Marshal(s.exec(req))
		binary.LittleEndian.PutUint32(hdr[:], uint32(len(out)))
		conn.Write(hdr[:])
		conn.Write(out)
	}
}

func (s *Server) exec(req map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, _ := req["cmd"].(string)
	if s.failNext != "" {
		msg := s.failNext
		s.failNext = ""
		return map[string]any{"ok": false, "error": msg}
	}

	col, _ := req["collection"].(string)
	query, _ := req["query"].(map[string]any)
	switch cmd {
	case "ping":
		return ok("pong")
	case "create_unique_index":
		return ok(map[string]any{"index": req["field"]})
	case "insert":
		doc, _ := req["doc"].(map[string]any)
		doc["_id"] = float64(len(s.cols[col]) + 1)
		s.cols[col] = append(s.cols[col], doc)
		return ok(map[string]any{"id": doc["_id"]})
	case "find_one":
		for _, d := range s.cols[col] {
			if matches(d, query) {
				return ok(d)
			}
		}
		return ok(nil)
	case "update_one":
		update, _ := req["update"].(map[string]any)
		set, _ := update["$set"].(map[string]any)
		for _, d := range s.cols[col] {
			if matches(d, query) {
				for k, v := range set {
					d[k] = v
				}
				return ok(map[string]any{"modified": 1})
			}
		}
		return ok(map[string]any{"modified": 0})
	}
	return map[string]any{"ok": false, "error": "unknown command: " + cmd}
}

func matches(doc, query map[string]any) bool {
	for k, v := range query {
		if doc[k] != v {
			return false
		}
	}
	return true
}

func ok(data any) map[string]any {
	return map[string]any{"ok": true, "data": data}
}
