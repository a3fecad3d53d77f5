package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
	"github.com/haivivi/wombscape/pkg/presets"
	"github.com/haivivi/wombscape/pkg/womb"
)

// Defaults for Config.
const (
	DefaultAddr       = ":8790"
	DefaultSynthRate  = 48000
	DefaultOutputRate = 16000
)

// Message is a control message. Unused fields are omitted.
type Message struct {
	Type      string      `json:"type"`
	BPM       float64     `json:"bpm,omitempty"`
	HeartRate float64     `json:"heart_rate_bpm,omitempty"`
	Message   string      `json:"message,omitempty"`
	Session   string      `json:"session,omitempty"`
	Preset    string      `json:"preset,omitempty"`
	Seed      uint64      `json:"seed,omitempty"`
	Format    string      `json:"format,omitempty"`
	Stats     *womb.Stats `json:"stats,omitempty"`
}

// Message types.
const (
	TypeSession      = "session"
	TypeSetHeartRate = "set_heart_rate"
	TypeHeartRate    = "heart_rate"
	TypeStats        = "stats"
	TypeError        = "error"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address for ListenAndServe.
	Addr string

	// Preset is the default preset id. Clients may pick another with
	// ?preset=.
	Preset string

	// Presets are user presets, looked up before the built-ins.
	Presets []presets.Preset

	// SynthRate is the bed synthesis rate.
	SynthRate int

	// OutputRate is the default output rate; clients may override it with
	// ?rate=.
	OutputRate int

	// FrameDuration is the length of each binary frame.
	FrameDuration time.Duration

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// SessionInfo describes a live connection.
type SessionInfo struct {
	ID        string     `json:"id"`
	Remote    string     `json:"remote"`
	Preset    string     `json:"preset"`
	Seed      uint64     `json:"seed"`
	Format    string     `json:"format"`
	HeartRate float64    `json:"heart_rate_bpm"`
	Started   time.Time  `json:"started"`
	Stats     womb.Stats `json:"stats"`
}

// Server streams beds over websockets.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	http     *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	sessions map[string]*session
}

// NewServer creates a server. It does not listen until Serve or
// ListenAndServe is called.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.SynthRate == 0 {
		cfg.SynthRate = DefaultSynthRate
	}
	if cfg.OutputRate == 0 {
		cfg.OutputRate = DefaultOutputRate
	}
	if cfg.FrameDuration == 0 {
		cfg.FrameDuration = DefaultFrameDuration
	}
	if _, err := presets.Resolve(cfg.Preset, cfg.Presets); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler: /bed, /healthz and /sessions.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bed", s.handleBed)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.Sessions())
	})
	return mux
}

// ListenAndServe listens on Config.Addr.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("stream: listening", "addr", ln.Addr().String())
	return s.http.Serve(ln)
}

// Shutdown stops accepting connections, ends every session and waits for
// them to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	err := s.http.Shutdown(ctx)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sessions returns a snapshot of the live sessions ordered by start time.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.info())
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b SessionInfo) int { return a.Started.Compare(b.Started) })
	return out
}

type session struct {
	SessionInfo
	conn   *websocket.Conn
	source *Source
	ctrl   chan Message
	stats  atomic.Pointer[womb.Stats]
	bpm    atomic.Uint64
}

func (sess *session) info() SessionInfo {
	info := sess.SessionInfo
	if st := sess.stats.Load(); st != nil {
		info.Stats = *st
	}
	info.HeartRate = math.Float64frombits(sess.bpm.Load())
	return info
}

// params are the connection parameters parsed from the query string.
type params struct {
	preset *presets.Preset
	seed   uint64
	format pcm.Format
}

func (s *Server) parseParams(q url.Values) (params, error) {
	p := params{
		format: pcm.Format{SampleRate: s.cfg.OutputRate, Channels: 1, Encoding: pcm.L16},
	}
	id := q.Get("preset")
	if id == "" {
		id = s.cfg.Preset
	}
	preset, err := presets.Resolve(id, s.cfg.Presets)
	if err != nil {
		return p, err
	}
	p.preset = preset

	if v := q.Get("seed"); v != "" {
		if p.seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return p, fmt.Errorf("invalid seed %q", v)
		}
	} else {
		p.seed = rand.Uint64()
	}
	if v := q.Get("rate"); v != "" {
		if p.format.SampleRate, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("invalid rate %q", v)
		}
	}
	if v := q.Get("channels"); v != "" {
		if p.format.Channels, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("invalid channels %q", v)
		}
	}
	if v := q.Get("encoding"); v != "" {
		if p.format.Encoding, err = pcm.ParseEncoding(v); err != nil {
			return p, err
		}
	}
	return p, p.format.Validate()
}

func (s *Server) handleBed(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cfg := p.preset.Bed(s.cfg.SynthRate, p.seed)
	if v := r.URL.Query().Get("bpm"); v != "" {
		if cfg.HeartRateBPM, err = strconv.ParseFloat(v, 64); err != nil {
			http.Error(w, fmt.Sprintf("invalid bpm %q", v), http.StatusBadRequest)
			return
		}
	}
	id := uuid.New().String()
	cfg.Logger = s.logger.With("session", id)
	source, err := NewSource(cfg, p.format, s.cfg.FrameDuration)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Register before upgrading so Shutdown waits for this session.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("stream: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	sess := &session{
		SessionInfo: SessionInfo{
			ID:      id,
			Remote:  r.RemoteAddr,
			Preset:  p.preset.ID,
			Seed:    p.seed,
			Format:  p.format.String(),
			Started: time.Now(),
		},
		conn:   conn,
		source: source,
		ctrl:   make(chan Message, 8),
	}
	sess.bpm.Store(math.Float64bits(cfg.HeartRateBPM))

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()

	log := s.logger.With("session", id, "remote", r.RemoteAddr)
	log.Info("stream: session started", "preset", p.preset.ID, "seed", p.seed, "format", p.format)
	err = s.run(sess)
	switch {
	case err == nil, errors.Is(err, context.Canceled), websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.Info("stream: session ended", "samples", source.Bed().Stats().Samples)
	default:
		log.Warn("stream: session ended", "error", err)
	}
}

// run drives one session. It is the only goroutine that touches the bed or
// writes to the connection.
func (s *Server) run(sess *session) error {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	defer sess.conn.Close()

	readErr := make(chan error, 1)
	go func() {
		readErr <- s.readLoop(ctx, sess)
		cancel()
	}()

	if err := sess.conn.WriteJSON(Message{
		Type:      TypeSession,
		Session:   sess.ID,
		Preset:    sess.Preset,
		Seed:      sess.Seed,
		Format:    sess.Format,
		HeartRate: sess.source.Bed().HeartRate(),
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.FrameDuration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(time.Second))
			select {
			case err := <-readErr:
				return err
			default:
				return ctx.Err()
			}
		case msg := <-sess.ctrl:
			if err := sess.conn.WriteJSON(s.control(sess, msg)); err != nil {
				return err
			}
		case <-ticker.C:
			frame, err := sess.source.EncodedFrame()
			if err != nil {
				return err
			}
			if err := sess.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return err
			}
			st := sess.source.Bed().Stats()
			sess.stats.Store(&st)
		}
	}
}

func (s *Server) readLoop(ctx context.Context, sess *session) error {
	for {
		typ, data, err := sess.conn.ReadMessage()
		if err != nil {
			return err
		}
		if typ != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = Message{Type: TypeError, Message: "invalid control message: " + err.Error()}
		}
		select {
		case sess.ctrl <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// control applies a control message and returns the reply.
func (s *Server) control(sess *session, msg Message) Message {
	bed := sess.source.Bed()
	switch msg.Type {
	case TypeSetHeartRate:
		if err := bed.SetHeartRate(msg.BPM); err != nil {
			return Message{Type: TypeError, Message: err.Error()}
		}
		sess.bpm.Store(math.Float64bits(msg.BPM))
		return Message{Type: TypeHeartRate, HeartRate: bed.HeartRate()}
	case TypeStats:
		st := bed.Stats()
		return Message{Type: TypeStats, Stats: &st, HeartRate: bed.HeartRate()}
	case TypeError:
		return msg
	}
	return Message{Type: TypeError, Message: fmt.Sprintf("unknown message type %q", msg.Type)}
}
