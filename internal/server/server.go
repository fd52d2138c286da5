// Package server publishes the latest generated map to WebSocket and telnet
// viewers and regenerates it on request.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/export"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/worldgen"
)

var (
	ErrNoMap          = errors.New("server: no map generated yet")
	ErrUnknownCommand = errors.New("server: unknown command")
)

// MapGenerator runs the generation pipeline.
type MapGenerator interface {
	Generate() (*worldgen.MapArea, worldgen.Stats, error)
	GenerateWithSeed(seed int64) (*worldgen.MapArea, worldgen.Stats, error)
	Config() config.WorldgenConfig
}

// LayoutStore persists every published map.
type LayoutStore interface {
	SaveLayout(snap *export.Snapshot) (int64, error)
}

// Status is served on /status.
type Status struct {
	UptimeSeconds int64       `json:"uptime_seconds"`
	HasMap        bool        `json:"has_map"`
	Seed          int64       `json:"seed"`
	LayoutID      int64       `json:"layout_id,omitempty"`
	Viewers       ViewerStats `json:"viewers"`
}

// Message is the JSON envelope sent to WebSocket viewers and served on /map.
type Message struct {
	Type     string           `json:"type"` // "map" or "error"
	Map      *export.Snapshot `json:"map,omitempty"`
	Stats    *worldgen.Stats  `json:"stats,omitempty"`
	LayoutID int64            `json:"layout_id,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type messageFormat int

const (
	formatJSON messageFormat = iota
	formatText
)

// viewer is one connected client. Writes are serialized per viewer so a
// broadcast never interleaves with a direct reply.
type viewer struct {
	client Client
	format messageFormat
	mu     sync.Mutex
}

type Server struct {
	cfg   config.ServerConfig
	gen   MapGenerator
	store LayoutStore

	// genMu serializes pipeline runs; mu guards the published map.
	genMu    sync.Mutex
	mu       sync.RWMutex
	snapshot *export.Snapshot
	stats    worldgen.Stats
	layoutID int64

	viewersMu sync.Mutex
	viewers   map[*viewer]struct{}

	listener     net.Listener
	httpServer   *http.Server
	connLimiter  *ConnLimiter
	rateLimiter  *RegenRateLimiter
	shutdown     chan struct{}
	shutdownOnce sync.Once
	StartTime    time.Time
}

// New creates a server. No map is published until Regenerate succeeds.
func New(cfg config.ServerConfig, gen MapGenerator) *Server {
	s := &Server{
		cfg:         cfg,
		gen:         gen,
		viewers:     make(map[*viewer]struct{}),
		connLimiter: NewConnLimiter(cfg.Connections),
		rateLimiter: NewRegenRateLimiter(cfg.RateLimit),
		shutdown:    make(chan struct{}),
		StartTime:   time.Now(),
	}
	return s
}

// SetLayoutStore makes every successful regeneration get persisted.
func (s *Server) SetLayoutStore(store LayoutStore) {
	s.store = store
}

// Snapshot returns the published map, or nil before the first regeneration.
func (s *Server) Snapshot() (*export.Snapshot, worldgen.Stats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.stats
}

// Regenerate rebuilds the map from scratch and broadcasts it. A nil seed uses
// the configured one. On error the previously published map stays in place.
func (s *Server) Regenerate(seed *int64) (*export.Snapshot, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	var (
		area  *worldgen.MapArea
		stats worldgen.Stats
		err   error
	)
	if seed == nil {
		area, stats, err = s.gen.Generate()
	} else {
		area, stats, err = s.gen.GenerateWithSeed(*seed)
	}
	if err != nil {
		logger.Error("Regeneration failed, keeping previous map", "seed", stats.Seed, "error", err)
		return nil, err
	}

	tile := s.gen.Config().TileSize
	snap := export.FromMapArea(area, stats.Seed, geometry.Point{X: tile.X, Y: tile.Y})

	var layoutID int64
	if s.store != nil {
		if layoutID, err = s.store.SaveLayout(snap); err != nil {
			logger.Warning("Failed to persist layout", "seed", stats.Seed, "error", err)
			layoutID = 0
		}
	}

	s.mu.Lock()
	s.snapshot = snap
	s.stats = stats
	s.layoutID = layoutID
	s.mu.Unlock()

	logger.Info("Published map",
		"seed", stats.Seed,
		"rooms", stats.Rooms,
		"hidden", stats.HiddenRooms,
		"connections", stats.Connections,
		"layout_id", layoutID)

	s.broadcast(snap, stats, layoutID)
	return snap, nil
}

// Handler returns the HTTP routes: GET /map, GET /status and the /ws upgrade.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/map", s.handleMap)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	return mux
}

// StartWebSocket serves HTTP and WebSocket viewers until Shutdown.
func (s *Server) StartWebSocket(address string) error {
	s.httpServer = &http.Server{Addr: address, Handler: s.Handler()}

	logger.Info("WebSocket server listening", "address", address)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start accepts telnet viewers on address until Shutdown.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	logger.Info("Telnet server listening", "address", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
				logger.Error("Error accepting connection", "error", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

// Addr returns the telnet listener address once Start is running.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	snap, stats, layoutID := s.snapshot, s.stats, s.layoutID
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if snap == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(Message{Type: "error", Error: ErrNoMap.Error()})
		return
	}
	json.NewEncoder(w).Encode(Message{Type: "map", Map: snap, Stats: &stats, LayoutID: layoutID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Status())
}

// Status reports uptime, the published map and the open viewer sessions.
func (s *Server) Status() Status {
	s.mu.RLock()
	st := Status{
		UptimeSeconds: int64(s.GetUptime().Seconds()),
		HasMap:        s.snapshot != nil,
		LayoutID:      s.layoutID,
	}
	if s.snapshot != nil {
		st.Seed = s.snapshot.Seed
	}
	s.mu.RUnlock()

	st.Viewers = s.connLimiter.Stats()
	return st
}

func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	ip := extractIP(remoteAddr)

	release, err := s.connLimiter.Acquire(ip, formatText)
	if err != nil {
		logger.Warning("Connection rejected - limit exceeded",
			"remote_addr", remoteAddr,
			"ip", ip,
			"reason", err)
		conn.Write([]byte("Too many connections. Please try again later.\r\n"))
		conn.Close()
		return
	}

	defer func() {
		release()
		conn.Close()
	}()

	s.handleClient(NewTelnetClient(conn), ip, formatText)
}

func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	release, err := s.connLimiter.Acquire(clientIP, formatJSON)
	if err != nil {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP,
			"reason", err)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		release()
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	go func() {
		defer func() {
			release()
			wsConn.Close()
		}()
		s.handleClient(NewWebSocketClient(wsConn), clientIP, formatJSON)
	}()
}

// handleClient sends the current map, then serves commands until the
// client disconnects or the server shuts down.
func (s *Server) handleClient(client Client, ip string, format messageFormat) {
	v := &viewer{client: client, format: format}
	logger.Info("Viewer connected", "remote_addr", client.RemoteAddr())

	s.viewersMu.Lock()
	s.viewers[v] = struct{}{}
	s.viewersMu.Unlock()

	defer func() {
		s.viewersMu.Lock()
		delete(s.viewers, v)
		s.viewersMu.Unlock()
		logger.Info("Viewer disconnected", "remote_addr", client.RemoteAddr())
	}()

	s.mu.RLock()
	snap, stats, layoutID := s.snapshot, s.stats, s.layoutID
	s.mu.RUnlock()
	if snap != nil {
		v.sendMap(snap, stats, layoutID)
	} else {
		v.sendError(ErrNoMap)
	}

	for {
		line, err := client.ReadLine()
		if err != nil {
			return
		}
		if !s.handleCommand(v, ip, line) {
			return
		}
	}
}

// handleCommand runs one viewer command and reports whether the session
// continues.
func (s *Server) handleCommand(v *viewer, ip, line string) bool {
	cmd, seed, err := parseCommand(line)
	if err != nil {
		v.sendError(err)
		return true
	}

	switch cmd {
	case "quit":
		return false
	case "map":
		s.mu.RLock()
		snap, stats, layoutID := s.snapshot, s.stats, s.layoutID
		s.mu.RUnlock()
		if snap == nil {
			v.sendError(ErrNoMap)
		} else {
			v.sendMap(snap, stats, layoutID)
		}
	case "regenerate":
		if ok, wait := s.rateLimiter.Allow(ip); !ok {
			logger.Warning("Regenerate rejected - rate limited", "ip", ip, "wait", wait)
			v.sendError(fmt.Errorf("too many regenerations, retry in %s", wait.Round(time.Second)))
			return true
		}
		// Success is delivered through the broadcast.
		if _, err := s.Regenerate(seed); err != nil {
			v.sendError(err)
		}
	}
	return true
}

// parseCommand accepts "map", "quit", "regenerate" and "regenerate <seed>".
func parseCommand(line string) (string, *int64, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}

	switch fields[0] {
	case "map", "quit":
		if len(fields) > 1 {
			return "", nil, fmt.Errorf("%s takes no arguments", fields[0])
		}
		return fields[0], nil, nil
	case "regenerate":
		switch len(fields) {
		case 1:
			return "regenerate", nil, nil
		case 2:
			seed, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return "", nil, fmt.Errorf("invalid seed %q", fields[1])
			}
			return "regenerate", &seed, nil
		}
		return "", nil, errors.New("usage: regenerate [seed]")
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

func (s *Server) broadcast(snap *export.Snapshot, stats worldgen.Stats, layoutID int64) {
	s.viewersMu.Lock()
	viewers := make([]*viewer, 0, len(s.viewers))
	for v := range s.viewers {
		viewers = append(viewers, v)
	}
	s.viewersMu.Unlock()

	for _, v := range viewers {
		v.sendMap(snap, stats, layoutID)
	}
}

// ViewerCount returns the number of connected viewers.
func (s *Server) ViewerCount() int {
	s.viewersMu.Lock()
	defer s.viewersMu.Unlock()
	return len(s.viewers)
}

// GetUptime returns how long the server has been running.
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.StartTime)
}

func (v *viewer) sendMap(snap *export.Snapshot, stats worldgen.Stats, layoutID int64) {
	if v.format == formatText {
		v.write(renderText(snap, stats))
		return
	}
	v.writeJSON(Message{Type: "map", Map: snap, Stats: &stats, LayoutID: layoutID})
}

func (v *viewer) sendError(err error) {
	if v.format == formatText {
		v.write("Error: " + err.Error())
		return
	}
	v.writeJSON(Message{Type: "error", Error: err.Error()})
}

func (v *viewer) writeJSON(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to encode viewer message", "error", err)
		return
	}
	v.write(string(data))
}

func (v *viewer) write(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.client.WriteLine(message); err != nil {
		logger.Debug("Viewer write failed", "remote_addr", v.client.RemoteAddr(), "error", err)
	}
}

// renderText draws the map for telnet viewers with a one-line header.
func renderText(snap *export.Snapshot, stats worldgen.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seed %d: %d rooms (%d hidden), %d connections",
		snap.Seed, stats.Rooms, stats.HiddenRooms, stats.Connections)
	if unreachable := snap.Unreachable(); len(unreachable) > 0 {
		fmt.Fprintf(&b, ", unreachable %v", unreachable)
	}
	for _, line := range snap.Render() {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// getRealIP extracts the real client IP from an HTTP request.
// It checks X-Forwarded-For header first (for reverse proxy setups),
// then falls back to the direct remote address.
func getRealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry of "client, proxy1, proxy2" is the original client.
		if clientIP := strings.TrimSpace(strings.Split(xff, ",")[0]); clientIP != "" {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return extractIP(r.RemoteAddr)
}

// Shutdown stops the listeners, closes every viewer and the rate limiter.
// It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		if s.listener != nil {
			s.listener.Close()
		}
		if s.httpServer != nil {
			s.httpServer.Close()
		}
		s.rateLimiter.Stop()

		s.viewersMu.Lock()
		for v := range s.viewers {
			v.client.Close()
		}
		s.viewersMu.Unlock()

		logger.Info("Server shutdown complete")
	})
}
