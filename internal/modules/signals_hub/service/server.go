package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/pkg/logger"
)

// hubMessage is the wire format pushed by signal scanners.
type hubMessage struct {
	Type        string `json:"type"`
	AssetName   string `json:"assetName"`
	MessageTime int64  `json:"messageTime"`
	SendTime    int64  `json:"sendTime"`
	ServerName  string `json:"serverName"`
	Key         string `json:"key"`
}

// Server accepts websocket connections from signal scanners, authenticates
// each message by shared key and pushes valid signals into the bot's stream.
type Server struct {
	cfg      *config.Config
	signals  chan<- models.Signal
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	onSignal func() // health counter hook, may be nil
}

func NewServer(cfg *config.Config, signals chan models.Signal) *Server {
	s := &Server{
		cfg:     cfg,
		signals: signals,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// scanners connect from anywhere, auth is the message key
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	s.httpSrv = &http.Server{
		Addr:    cfg.SignalsHub.Addr,
		Handler: mux,
	}
	return s
}

// SetOnSignal registers a callback invoked for every accepted signal.
func (s *Server) SetOnSignal(fn func()) {
	s.onSignal = fn
}

func (s *Server) Start() error {
	logger.Info("signals hub listening on %s", s.cfg.SignalsHub.Addr)
	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	logger.Info("scanner connected from %s", r.RemoteAddr)

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
		logger.Info("scanner %s disconnected", conn.RemoteAddr())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("ws read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		var msg hubMessage
		if err = sonic.Unmarshal(raw, &msg); err != nil {
			logger.Error("bad hub message from %s: %v", conn.RemoteAddr(), err)
			continue
		}
		if msg.Key != s.cfg.SignalsHub.AuthKey {
			logger.Error("hub message with bad key from %s (server %q)", conn.RemoteAddr(), msg.ServerName)
			continue
		}

		sig := models.Signal{
			AssetSymbol: msg.AssetName,
			Kind:        models.SignalKind(strings.ToUpper(msg.Type)),
			ObservedAt:  time.UnixMilli(msg.MessageTime),
			SentAt:      time.UnixMilli(msg.SendTime),
			SourceName:  msg.ServerName,
		}
		if s.onSignal != nil {
			s.onSignal()
		}

		select {
		case s.signals <- sig:
		default:
			logger.Error("signal stream full, dropping %s", sig.AssetSymbol)
		}
	}
}
