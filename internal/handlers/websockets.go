package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"expense_tracker/internal/models"
	"expense_tracker/internal/service"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 5 * time.Second
	maxInterval      = 60 * time.Second
	maxIntervalMilli = 60_000
)

// wsEnvelope is the frame written to subscribers.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// spendingSummary is the payload of a "summary" frame.
type spendingSummary struct {
	Daily      []models.DailyTotal    `json:"daily"`
	Categories []models.CategoryTotal `json:"categories"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: h.checkOrigin}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// wsToken accepts the bearer header or ?token= since browsers cannot set
// headers on a websocket handshake.
func wsToken(c *gin.Context) (string, error) {
	if t := c.Query("token"); t != "" {
		return t, nil
	}
	return bearerToken(c.GetHeader("Authorization"))
}

// @Summary      Live spending summary
// @Description  Upgrades to a WebSocket and pushes "summary" frames (7-day series and category totals) for the caller.
// @Tags         summary
// @Param        token        query  string  false  "JWT when no Authorization header is sent"
// @Param        interval     query  string  false  "Push period, e.g. 10s (max 60s)"
// @Param        interval_ms  query  int     false  "Push period in milliseconds"
// @Success      101
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	token, err := wsToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Access token required"})
		return
	}
	claims, ok := h.authenticate(c, token)
	if !ok {
		return
	}
	interval := h.parseInterval(c)

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendSummary(ctx, conn, claims.UserID); err != nil {
		h.log.Infow("ws_write_failed_initial", "err", err, "user_id", claims.UserID)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := h.sendSummary(ctx, conn, claims.UserID); err != nil {
				h.log.Infow("ws_write_failed", "err", err, "user_id", claims.UserID)
				return
			}
		}
	}
}

// parseInterval reads ?interval=10s or ?interval_ms=10000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}

// sendSummary writes the caller's current summary. A failed lookup is sent
// as an error frame and keeps the connection open.
func (h *Handler) sendSummary(ctx context.Context, conn *websocket.Conn, userID int64) error {
	var sum spendingSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Daily, err = h.services.DailySeries(gctx, userID, service.DefaultSeriesDays)
		return err
	})
	g.Go(func() (err error) {
		sum.Categories, err = h.services.CategoryTotals(gctx, userID, service.DateRange{})
		return err
	})

	env := wsEnvelope{Type: "summary", Data: sum}
	if err := g.Wait(); err != nil {
		h.log.Errorw("ws_summary_failed", "err", err, "user_id", userID)
		env = wsEnvelope{Type: "error", Error: errInternal}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
