package cli

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cocadite/api-pe-na-porta/internal/auth"
	"github.com/Cocadite/api-pe-na-porta/internal/config"
	"github.com/Cocadite/api-pe-na-porta/internal/oxidb/oxidbtest"
	"github.com/Cocadite/api-pe-na-porta/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "signing-key")

	out, err := run(t, "token", "--subject", "bot-1", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.ValidateToken("signing-key", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "bot-1", claims.Subject)
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "token", "--subject", "bot-1")
	require.Error(t, err)
}

func TestTokenHashCommand(t *testing.T) {
	out, err := run(t, "token", "hash", "s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret")))
}

func TestCheckCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"submissions":[{"id":"1","status":"approved","createdAt":1,"updatedAt":1}],"logs":[]}`), 0o644))
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("DB_FILE", path)
	t.Setenv("STORE_DRIVER", "file")

	out, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "submissions: 1 (pending 0, approved 1")
	assert.Contains(t, out, "bot queue: 1")
}

func TestCheckCommandCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`nope`), 0o644))
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("DB_FILE", path)
	t.Setenv("STORE_DRIVER", "file")

	_, err := run(t, "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestAuthenticatorFromConfig(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed"), bcrypt.MinCost)
	require.NoError(t, err)
	a := authenticator(&config.Config{APIKey: "plain", APIKeyHash: string(hash), JWTSecret: "k"})

	token, err := auth.GenerateToken("k", "x", time.Minute)
	require.NoError(t, err)
	assert.True(t, a.Authenticate("Bearer plain"))
	assert.True(t, a.Authenticate("Bearer hashed"))
	assert.True(t, a.Authenticate("Bearer "+token))
	assert.False(t, a.Authenticate("Bearer other"))

	assert.False(t, authenticator(&config.Config{}).Authenticate("Bearer "))
}

func TestOpenStoreOxiDB(t *testing.T) {
	srv := oxidbtest.NewServer(t)
	host, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	log, _ := logtest.NewNullLogger()

	st, closeStore, err := openStore(&config.Config{
		StoreDriver: "oxidb",
		OxiDB:       config.OxiDBOptions{Host: host, Port: p, PoolSize: 1, Collection: "state"},
	}, log)
	require.NoError(t, err)
	defer closeStore()

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Submissions)
	assert.Len(t, srv.Docs("state"), 1)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	cfg := &config.Config{
		HTTPAddr:        addr,
		ShutdownTimeout: time.Second,
		APIKey:          "s3cret",
		StoreDriver:     "memory",
		CORSOrigins:     []string{"*"},
		LogLevel:        "error",
		LogFormat:       "text",
		RateLimit:       config.RateLimitOptions{Enabled: true, Rate: "100-S", Storage: "memory"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
