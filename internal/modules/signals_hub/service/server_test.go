package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func dialTestHub(t *testing.T) (*websocket.Conn, chan models.Signal) {
	t.Helper()

	cfg := &config.Config{}
	cfg.SignalsHub.AuthKey = "secret"

	signals := make(chan models.Signal, 8)
	hub := NewServer(cfg, signals)

	srv := httptest.NewServer(http.HandlerFunc(hub.handleWS))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, signals
}

func TestHubAcceptsAuthenticatedSignal(t *testing.T) {
	conn, signals := dialTestHub(t)

	now := time.Now().UnixMilli()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":        "pump",
		"assetName":   "DOGE",
		"messageTime": now - 500,
		"sendTime":    now,
		"serverName":  "scanner-1",
		"key":         "secret",
	}))

	select {
	case sig := <-signals:
		assert.Equal(t, "DOGE", sig.AssetSymbol)
		assert.Equal(t, models.SignalPump, sig.Kind)
		assert.Equal(t, "scanner-1", sig.SourceName)
		assert.WithinDuration(t, time.UnixMilli(now-500), sig.ObservedAt, time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("signal never arrived")
	}
}

func TestHubRejectsBadKey(t *testing.T) {
	conn, signals := dialTestHub(t)

	now := time.Now().UnixMilli()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":        "pump",
		"assetName":   "DOGE",
		"messageTime": now,
		"sendTime":    now,
		"serverName":  "scanner-1",
		"key":         "wrong",
	}))

	select {
	case sig := <-signals:
		t.Fatalf("unauthenticated signal got through: %+v", sig)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHubMapsTestSignalKind(t *testing.T) {
	conn, signals := dialTestHub(t)

	now := time.Now().UnixMilli()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":        "test",
		"assetName":   "DOGE",
		"messageTime": now,
		"sendTime":    now,
		"serverName":  "scanner-1",
		"key":         "secret",
	}))

	select {
	case sig := <-signals:
		assert.Equal(t, models.SignalTest, sig.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("signal never arrived")
	}
}

func TestHubSkipsMalformedMessages(t *testing.T) {
	conn, signals := dialTestHub(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	now := time.Now().UnixMilli()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":        "pump",
		"assetName":   "SHIB",
		"messageTime": now,
		"sendTime":    now,
		"serverName":  "scanner-1",
		"key":         "secret",
	}))

	// the bad frame is skipped, the connection survives
	select {
	case sig := <-signals:
		assert.Equal(t, "SHIB", sig.AssetSymbol)
	case <-time.After(2 * time.Second):
		t.Fatal("signal never arrived")
	}
}
