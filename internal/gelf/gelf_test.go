package gelf

import (
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 65535)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(buf[:n], &msg))
	return msg
}

func TestHookSendsGELF(t *testing.T) {
	conn := listen(t)
	hook, err := New(conn.LocalAddr().String(), "formqueue")
	require.NoError(t, err)
	defer hook.Close()

	log := logrus.New()
	log.AddHook(hook)
	log.WithFields(logrus.Fields{"id": "sub-1", "event": "approve"}).
		WithError(errors.New("boom")).
		Warn("submission updated")

	msg := receive(t, conn)
	assert.Equal(t, "1.1", msg["version"])
	assert.Equal(t, "submission updated", msg["short_message"])
	assert.EqualValues(t, 4, msg["level"])
	assert.Equal(t, "formqueue", msg["_service"])
	assert.Equal(t, "sub-1", msg["_submission_id"])
	assert.Equal(t, "approve", msg["_event"])
	assert.Equal(t, "boom", msg["_error"])
	_, hasID := msg["_id"]
	assert.False(t, hasID)
}

func TestHookTruncatesLargeEntries(t *testing.T) {
	conn := listen(t)
	hook, err := New(conn.LocalAddr().String(), "formqueue")
	require.NoError(t, err)
	defer hook.Close()

	log := logrus.New()
	log.AddHook(hook)
	log.WithFields(logrus.Fields{
		"id":   "sub-1",
		"blob": strings.Repeat("x", 20000),
	}).Error(strings.Repeat("m", 2000))

	msg := receive(t, conn)
	assert.Len(t, msg["short_message"], 512)
	assert.EqualValues(t, 3, msg["level"])
	assert.NotContains(t, msg, "_blob")
	assert.NotContains(t, msg, "_submission_id")
}

func TestSyslogLevel(t *testing.T) {
	assert.Equal(t, 6, syslogLevel(logrus.InfoLevel))
	assert.Equal(t, 7, syslogLevel(logrus.DebugLevel))
	assert.Equal(t, 7, syslogLevel(logrus.TraceLevel))
	assert.Equal(t, 2, syslogLevel(logrus.FatalLevel))
}
