// Package gelf ships logrus entries to a Graylog input as GELF 1.1 over UDP.
package gelf

import (
	"encoding/json"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// maxDatagram keeps messages under the usual UDP payload size; GELF
// chunking is not implemented, oversized messages are truncated.
const maxDatagram = 8192

// Hook sends one GELF message per log entry. Sending is fire-and-forget:
// network errors never fail the log call.
type Hook struct {
	conn     net.Conn
	hostname string
	service  string
}

// New dials addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Hook, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}
	return &Hook{conn: conn, hostname: hostname, service: service}, nil
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(e *logrus.Entry) error {
	msg := map[string]any{
		"version":       "1.1",
		"host":          h.hostname,
		"short_message": e.Message,
		"timestamp":     float64(e.Time.UnixNano()) / 1e9,
		"level":         syslogLevel(e.Level),
		"_service":      h.service,
	}
	if e.Time.IsZero() {
		msg["timestamp"] = float64(time.Now().UnixNano()) / 1e9
	}
	for k, v := range e.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		msg[fieldKey(k)] = v
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	if len(payload) > maxDatagram {
		msg["short_message"] = truncate(e.Message, 512)
		for k := range e.Data {
			delete(msg, fieldKey(k))
		}
		if payload, err = json.Marshal(msg); err != nil {
			return nil
		}
	}
	h.conn.Write(payload)
	return nil
}

func (h *Hook) Close() error {
	return h.conn.Close()
}

// fieldKey maps a logrus field to its GELF additional-field name.
func fieldKey(k string) string {
	if k == "id" {
		// "_id" is reserved by GELF.
		return "_submission_id"
	}
	return "_" + k
}

func syslogLevel(l logrus.Level) int {
	switch l {
	case logrus.PanicLevel:
		return 1
	case logrus.FatalLevel:
		return 2
	case logrus.ErrorLevel:
		return 3
	case logrus.WarnLevel:
		return 4
	case logrus.InfoLevel:
		return 6
	default:
		return 7
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
