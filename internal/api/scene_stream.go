package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioInfo/chronoscope/internal/middleware"
	"github.com/BioInfo/chronoscope/internal/progress"
	"github.com/BioInfo/chronoscope/internal/scene"
	"github.com/BioInfo/chronoscope/internal/spacetime"
	"github.com/BioInfo/chronoscope/internal/waypoint"
)

// Stream message types. Clients send "render"; the server sends the rest.
const (
	MessageRender   = "render"
	MessageProgress = "progress"
	MessageScene    = "scene"
	MessageError    = "error"
)

const (
	streamWriteWait   = 10 * time.Second
	streamReadLimit   = 4 << 10
	streamOutboxSize  = 16
	streamCloseReason = "done"
)

// StreamMessage is a server-to-client websocket frame.
type StreamMessage struct {
	Type    string       `json:"type"`
	RunID   uint64       `json:"runId,omitempty"`
	Percent int          `json:"percent"`
	Stage   string       `json:"stage,omitempty"`
	Scene   *scene.Scene `json:"scene,omitempty"`
	Message string       `json:"message,omitempty"`
}

// RenderRequest is a client-to-server frame asking for a new scene. It
// supersedes any render still in progress on the connection.
type RenderRequest struct {
	Type        string                `json:"type"`
	Coordinates spacetime.Coordinates `json:"coordinates"`
}

func (h *SceneHandlers) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(h.origins) == 0 || origin == "" || h.origins[origin]
		},
	}
}

// sceneStream is one websocket connection. Progress callbacks run on the
// simulator's goroutines and hand frames to the single writer via out.
type sceneStream struct {
	conn    *websocket.Conn
	tracker *progress.Tracker
	out     chan StreamMessage
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

func (h *SceneHandlers) openStream(w http.ResponseWriter, r *http.Request) (*sceneStream, bool) {
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to upgrade websocket connection", "error", err)
		return nil, false
	}
	conn.SetReadLimit(streamReadLimit)
	// Clear the server's read timeout; the stream lives until the client leaves.
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	s := &sceneStream{
		conn:    conn,
		tracker: progress.NewTracker(h.simulator),
		out:     make(chan StreamMessage, streamOutboxSize),
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default().With("request_id", middleware.GetRequestID(r.Context())),
	}
	if h.metrics != nil {
		h.metrics.WebSocketOpened()
	}
	return s, true
}

func (h *SceneHandlers) closeStream(s *sceneStream) {
	s.tracker.Stop()
	s.cancel()
	_ = s.conn.Close()
	if h.metrics != nil {
		h.metrics.WebSocketClosed()
	}
}

// send queues msg unless the connection is shutting down.
func (s *sceneStream) send(msg StreamMessage) {
	select {
	case s.out <- msg:
	case <-s.ctx.Done():
	}
}

func (s *sceneStream) fail(message string) {
	s.send(StreamMessage{Type: MessageError, Message: message})
}

// begin starts a run on the tracker. When it completes, produce builds the
// scene that is sent to the client. Frames carry their run id so the
// writer can drop those of superseded runs.
func (s *sceneStream) begin(quick bool, produce func() scene.Scene) {
	onProgress := func(u progress.Update) {
		s.send(StreamMessage{Type: MessageProgress, RunID: u.RunID, Percent: u.Percent, Stage: u.Stage})
	}
	onComplete := func(runID uint64) {
		sc := produce()
		if !s.tracker.IsCurrent(runID) {
			return
		}
		s.send(StreamMessage{Type: MessageScene, RunID: runID, Percent: 100, Scene: &sc})
	}
	if quick {
		s.tracker.BeginQuick(s.ctx, onProgress, onComplete)
		return
	}
	s.tracker.Begin(s.ctx, onProgress, onComplete)
}

// stale reports whether msg belongs to a run that is no longer current.
func (s *sceneStream) stale(msg StreamMessage) bool {
	return msg.RunID != 0 && !s.tracker.IsCurrent(msg.RunID)
}

// writeLoop writes queued frames until the context ends or an error frame
// has been sent, then closes the connection normally. Frames of superseded
// runs are dropped.
func (s *sceneStream) writeLoop() {
	defer s.cancel()
	for {
		select {
		case <-s.ctx.Done():
			s.writeClose()
			return
		case msg := <-s.out:
			if s.stale(msg) {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
			if msg.Type == MessageError {
				s.writeClose()
				return
			}
		}
	}
}

func (s *sceneStream) writeClose() {
	deadline := time.Now().Add(streamWriteWait)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, streamCloseReason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
}

// readLoop handles client frames until the client disconnects.
func (s *sceneStream) readLoop(onRender func(spacetime.Coordinates)) {
	defer s.cancel()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket connection closed unexpectedly", "error", err)
			}
			return
		}

		var req RenderRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.fail("Invalid message")
			continue
		}
		if req.Type != MessageRender {
			s.fail("Unknown message type")
			continue
		}
		if v := spacetime.Validate(req.Coordinates); !v.Valid {
			s.fail(v.Error)
			continue
		}
		onRender(req.Coordinates)
	}
}

// RenderStream handles GET /scenes/render/ws. The initial coordinate comes
// from the share-link query parameters. The server streams progress frames
// and then a scene frame; the client may send render requests to start
// over with new coordinates. An invalid coordinate yields an error frame
// and the connection is closed.
func (h *SceneHandlers) RenderStream(w http.ResponseWriter, r *http.Request) {
	initial, ok := spacetime.DecodeValues(r.URL.Query())

	s, upgraded := h.openStream(w, r)
	if !upgraded {
		return
	}
	defer h.closeStream(s)

	render := func(c spacetime.Coordinates) {
		s.begin(false, func() scene.Scene { return h.generate(s.ctx, c) })
	}

	switch {
	case !ok:
		s.fail("Missing or malformed coordinates")
	default:
		if v := spacetime.Validate(initial); !v.Valid {
			s.fail(v.Error)
			break
		}
		render(initial)
		go s.readLoop(render)
	}
	s.writeLoop()
}

// JumpStream handles GET /waypoints/{id}/ws. The waypoint's stored preview
// is delivered after a quick progress run.
func (h *SceneHandlers) JumpStream(w http.ResponseWriter, r *http.Request) {
	wp, err := waypoint.ByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, waypoint.ErrWaypointNotFound) {
			writeCode(w, r, ErrCodeNotFound, "Waypoint not found")
			return
		}
		writeInternal(w, r, "failed to load waypoints", err)
		return
	}

	s, upgraded := h.openStream(w, r)
	if !upgraded {
		return
	}
	defer h.closeStream(s)

	s.begin(true, func() scene.Scene {
		h.recordVisit(s.ctx, wp.Coordinates, wp.Name)
		return wp.PreviewData
	})
	go s.readLoop(func(c spacetime.Coordinates) {
		s.begin(false, func() scene.Scene { return h.generate(s.ctx, c) })
	})
	s.writeLoop()
}
