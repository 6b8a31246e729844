// Package wsbridge presents the overlay to browser sources over WebSocket.
package wsbridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/orchestrator/compositor"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

// FrameMessage carries one rendered overlay as a base64 PNG.
type FrameMessage struct {
	Type   string `json:"type"`
	Mode   string `json:"mode"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    string `json:"png"`
	Text   string `json:"text,omitempty"`
}

type HideMessage struct {
	Type string `json:"type"`
}

type PlaceMessage struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// MovedMessage is sent by a client after the user dragged the overlay.
type MovedMessage struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Bridge is a surface that fans the overlay out to WebSocket clients.
type Bridge struct {
	onMove func(x, y int)

	mu     sync.RWMutex
	conns  map[*websocket.Conn]*rateLimiter
	frame  *FrameMessage // nil while hidden
	pngRaw []byte
	place  *PlaceMessage
}

// New creates a bridge. onMove, if set, receives positions reported by
// clients.
func New(onMove func(x, y int)) *Bridge {
	return &Bridge{
		onMove: onMove,
		conns:  make(map[*websocket.Conn]*rateLimiter),
	}
}

// Handler returns the HTTP handler.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", b.handleWebSocket)
	mux.HandleFunc("GET /overlay.png", b.handleImage)
	mux.HandleFunc("GET /api/state", b.handleState)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

// ListenAndServe serves the bridge on addr until ctx is done.
func (b *Bridge) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           b.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	trace.Logger(ctx).Info("overlay bridge listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return apperrors.Wrap(err, apperrors.CodeSurfaceUnavailable, "listen "+addr)
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Show encodes the artifact once and sends it to every client.
func (b *Bridge) Show(ctx context.Context, a *compositor.Artifact) error {
	if a == nil || a.Image == nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "artifact has no image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, a.Image); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encode overlay")
	}
	msg := &FrameMessage{
		Type:   "frame",
		Mode:   string(a.Mode),
		Width:  a.Width,
		Height: a.Height,
		PNG:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		Text:   a.Text(),
	}

	b.mu.Lock()
	b.frame, b.pngRaw = msg, buf.Bytes()
	b.mu.Unlock()

	b.broadcast(ctx, msg)
	return nil
}

// Hide tells every client to clear the overlay.
func (b *Bridge) Hide(ctx context.Context) error {
	b.mu.Lock()
	b.frame, b.pngRaw = nil, nil
	b.mu.Unlock()

	b.broadcast(ctx, HideMessage{Type: "hide"})
	return nil
}

// PlaceAt forwards a placement to every client.
func (b *Bridge) PlaceAt(ctx context.Context, x, y int) error {
	msg := &PlaceMessage{Type: "place", X: x, Y: y}
	b.mu.Lock()
	b.place = msg
	b.mu.Unlock()

	b.broadcast(ctx, msg)
	return nil
}

// Clients returns the number of connected clients.
func (b *Bridge) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

func (b *Bridge) broadcast(ctx context.Context, msg any) {
	b.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			wctx, cancel := context.WithTimeout(ctx, WriteTimeout)
			defer cancel()
			if err := wsjson.Write(wctx, c, msg); err != nil {
				trace.Logger(ctx).Debug("websocket write error", "error", err)
			}
		}(c)
	}
	wg.Wait()
}

func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// New clients start from the current state.
	b.mu.Lock()
	b.conns[conn] = &rateLimiter{}
	frame, place := b.frame, b.place
	rl := b.conns[conn]
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
	}()

	if place != nil {
		_ = wsjson.Write(ctx, conn, place)
	}
	if frame != nil {
		_ = wsjson.Write(ctx, conn, frame)
	} else {
		_ = wsjson.Write(ctx, conn, HideMessage{Type: "hide"})
	}

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(ctx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(raw, &base); err != nil {
			continue
		}

		switch base.Type {
		case "moved":
			var moved MovedMessage
			if err := json.Unmarshal(raw, &moved); err != nil {
				continue
			}
			log.Debug("client moved overlay", "x", moved.X, "y", moved.Y)
			if b.onMove != nil {
				b.onMove(moved.X, moved.Y)
			}
		}
	}
}

func (b *Bridge) handleImage(w http.ResponseWriter, _ *http.Request) {
	b.mu.RLock()
	data := b.pngRaw
	b.mu.RUnlock()

	if data == nil {
		http.Error(w, "overlay hidden", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

type stateResponse struct {
	Visible bool   `json:"visible"`
	Mode    string `json:"mode,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Clients int    `json:"clients"`
}

func (b *Bridge) handleState(w http.ResponseWriter, _ *http.Request) {
	b.mu.RLock()
	resp := stateResponse{Clients: len(b.conns)}
	if f := b.frame; f != nil {
		resp.Visible, resp.Mode, resp.Width, resp.Height = true, f.Mode, f.Width, f.Height
	}
	b.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
