package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/tripplanner/internal/adapters/nats"
	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// WebSocketUpgrade only lets authenticated upgrade requests through. Browsers
// cannot set headers on a WebSocket handshake, so the token may also come in
// the "token" query parameter.
func WebSocketUpgrade(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		tok := bearerToken(c)
		if tok == "" {
			tok = c.Query("token")
		}
		if tok == "" {
			return errUnauthorized(c, "Authentication required")
		}
		sess, err := deps.Auth.Authenticate(c.UserContext(), tok)
		if err != nil {
			return errUnauthorized(c, "Invalid or expired token")
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// WebSocketHandler relays the caller's own trip events (planned, saved)
// from NATS to the socket until either side closes.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sess, _ := c.Locals(sessionKey).(*domain.Session)
		if sess == nil {
			return
		}
		log := slog.Default().With("user_id", sess.UserID, "remote", c.RemoteAddr().String())

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Debug("ws client connected")

		var mu sync.Mutex
		write := func(kind int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(kind, data)
		}

		sub, err := nc.Subscribe(natsadapter.UserSubject(sess.UserID), func(msg *nats.Msg) {
			if !json.Valid(msg.Data) {
				return
			}
			if err := write(websocket.TextMessage, msg.Data); err != nil {
				log.Debug("ws write failed", "error", err)
			}
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// The stream is one-way; reads only detect the client going away.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Debug("ws client disconnected")
	}
}
