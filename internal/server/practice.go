package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/typedrill/internal/clock"
	"github.com/verte-zerg/typedrill/internal/generator"
	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/session"
	"github.com/verte-zerg/typedrill/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local tool; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is sent by the browser.
type clientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Mode string `json:"mode,omitempty"`
}

// serverMessage is pushed to the browser.
type serverMessage struct {
	Type        string                `json:"type"`
	State       *model.SessionState   `json:"state,omitempty"`
	Result      *model.RoundResult    `json:"result,omitempty"`
	Feedback    *session.WordFeedback `json:"feedback,omitempty"`
	RemainingMs int64                 `json:"remainingMs"`
	Error       string                `json:"error,omitempty"`
}

type practiceHandler struct {
	store  Store
	cfg    session.Config
	clk    clock.Clock
	logger *slog.Logger
}

// ServeHTTP handles GET /ws/practice?doc={id}&mode=
func (h *practiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docID := q.Get("doc")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "doc is required")
		return
	}
	cfg := h.cfg
	if v := q.Get("mode"); v != "" {
		mode, err := model.ParseMode(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Mode = mode
	}
	doc, err := session.LoadDocument(r.Context(), h.store, docID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, session.ErrEmptyStream):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	logger := h.logger.With("doc", docID, "id", RequestIDFrom(r.Context()))
	pc := newPracticeConn(conn, logger)
	engine := session.New(cfg, h.clk, generator.New(),
		session.WithListener(pc.onEvent),
		session.WithHistorySink(h.store),
		session.WithLogger(logger),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pc.writeLoop()
	}()

	if err := engine.SetDocument(doc); err != nil {
		pc.sendError(err)
	} else if err := engine.Start(); err != nil {
		pc.sendError(err)
	}
	pc.readLoop(engine)

	engine.Close()
	pc.close()
	wg.Wait()
	if err := conn.Close(); err != nil {
		logger.Debug("websocket close", "error", err)
	}
}

// practiceConn owns one websocket. Only writeLoop writes to the socket.
type practiceConn struct {
	conn   *websocket.Conn
	logger *slog.Logger
	out    chan serverMessage
	done   chan struct{}
	once   sync.Once
}

func newPracticeConn(conn *websocket.Conn, logger *slog.Logger) *practiceConn {
	return &practiceConn{
		conn:   conn,
		logger: logger,
		out:    make(chan serverMessage, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *practiceConn) close() {
	c.once.Do(func() { close(c.done) })
}

// send queues msg unless the connection is closing.
func (c *practiceConn) send(msg serverMessage) {
	select {
	case c.out <- msg:
	case <-c.done:
	}
}

func (c *practiceConn) sendError(err error) {
	c.send(serverMessage{Type: "error", Error: err.Error()})
}

func (c *practiceConn) onEvent(ev session.Event) {
	msg := serverMessage{
		Type:        string(ev.Kind),
		Result:      ev.Result,
		Feedback:    ev.Feedback,
		RemainingMs: ev.Remaining.Milliseconds(),
	}
	// Ticks carry only the remaining time.
	if ev.Kind != session.EventTick && ev.Kind != session.EventBreakTick {
		st := ev.State
		msg.State = &st
	}
	c.send(msg)
}

func (c *practiceConn) readLoop(engine *session.Engine) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		if err := c.dispatch(engine, msg); err != nil {
			c.sendError(err)
		}
	}
}

func (c *practiceConn) dispatch(engine *session.Engine, msg clientMessage) error {
	switch msg.Type {
	case "start":
		return engine.Start()
	case "key":
		return engine.Begin()
	case "word":
		_, err := engine.SubmitWord(msg.Text)
		return err
	case "mode":
		mode, err := model.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		return engine.SetMode(mode)
	case "finish":
		engine.Finish()
		return nil
	case "state":
		st := engine.State()
		c.send(serverMessage{Type: "state", State: &st, RemainingMs: engine.Remaining().Milliseconds()})
		return nil
	default:
		return errors.New("unknown message type " + msg.Type)
	}
}

func (c *practiceConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.out:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}
