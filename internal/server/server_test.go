package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/export"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/room"
	"github.com/spyice/room-generator/internal/worldgen"
)

var errBadSeed = errors.New("bad seed")

// fakeGenerator builds a single room whose width is 2 + seed. Negative
// seeds fail.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGenerator) Config() config.WorldgenConfig {
	cfg := config.DefaultWorldgenConfig()
	cfg.Seed = 1
	return cfg
}

func (g *fakeGenerator) Generate() (*worldgen.MapArea, worldgen.Stats, error) {
	return g.GenerateWithSeed(g.Config().Seed)
}

func (g *fakeGenerator) GenerateWithSeed(seed int64) (*worldgen.MapArea, worldgen.Stats, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	stats := worldgen.Stats{Seed: seed}
	if seed < 0 {
		return nil, stats, errBadSeed
	}
	area := worldgen.NewMapArea()
	r := room.New(0, geometry.NewRect(0, 0, 2+int(seed), 1), room.Details{IsMain: true})
	if err := area.AddRoom(r); err != nil {
		return nil, stats, err
	}
	stats.Rooms = 1
	return area, stats, nil
}

type memoryStore struct {
	mu    sync.Mutex
	saved []*export.Snapshot
	err   error
}

func (m *memoryStore) SaveLayout(snap *export.Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, snap)
	return int64(len(m.saved)), nil
}

func testServerConfig() config.ServerConfig {
	cfg := config.DefaultConfig().Server
	cfg.WebSocket.AllowedOrigins = []string{"*"}
	return cfg
}

func seedPtr(v int64) *int64 { return &v }

func TestServer_Shutdown_CalledTwice(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	s.Shutdown()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Second Shutdown() call panicked: %v", r)
		}
	}()
	s.Shutdown()
}

func TestServer_Regenerate(t *testing.T) {
	store := &memoryStore{}
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	s.SetLayoutStore(store)

	if snap, _ := s.Snapshot(); snap != nil {
		t.Fatal("no map should be published before the first regeneration")
	}

	snap, err := s.Regenerate(nil)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if snap.Seed != 1 || snap.Rooms[0].Width != 3 {
		t.Errorf("configured seed map = seed %d width %d, want 1/3", snap.Seed, snap.Rooms[0].Width)
	}

	if _, err := s.Regenerate(seedPtr(5)); err != nil {
		t.Fatalf("Regenerate(5): %v", err)
	}
	got, stats := s.Snapshot()
	if got.Seed != 5 || stats.Seed != 5 || got.Rooms[0].Width != 7 {
		t.Errorf("published seed %d width %d, want 5/7", got.Seed, got.Rooms[0].Width)
	}
	if len(store.saved) != 2 {
		t.Errorf("store saved %d layouts, want 2", len(store.saved))
	}
}

func TestServer_RegenerateKeepsPreviousMapOnError(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()

	if _, err := s.Regenerate(seedPtr(2)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if _, err := s.Regenerate(seedPtr(-1)); !errors.Is(err, errBadSeed) {
		t.Fatalf("Regenerate(-1) error = %v, want errBadSeed", err)
	}
	if snap, _ := s.Snapshot(); snap == nil || snap.Seed != 2 {
		t.Errorf("previous map should stay published, got %+v", snap)
	}
}

func TestServer_RegenerateStoreFailureStillPublishes(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	s.SetLayoutStore(&memoryStore{err: errors.New("disk full")})

	if _, err := s.Regenerate(seedPtr(3)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if snap, _ := s.Snapshot(); snap == nil || snap.Seed != 3 {
		t.Error("map should be published even when persisting fails")
	}
}

func TestServer_ConcurrentRegenerateAndRead(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(seed int64) {
			defer wg.Done()
			s.Regenerate(&seed)
		}(int64(i))
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if snap, _ := s.Snapshot(); snap != nil && len(snap.Rooms) != 1 {
					t.Error("reader saw a partially built map")
				}
			}
		}()
	}
	wg.Wait()
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		cmd     string
		seed    int64
		hasSeed bool
		wantErr bool
	}{
		{line: "map", cmd: "map"},
		{line: "  QUIT ", cmd: "quit"},
		{line: "regenerate", cmd: "regenerate"},
		{line: "regenerate 42", cmd: "regenerate", seed: 42, hasSeed: true},
		{line: "regenerate -7", cmd: "regenerate", seed: -7, hasSeed: true},
		{line: "regenerate abc", wantErr: true},
		{line: "regenerate 1 2", wantErr: true},
		{line: "map now", wantErr: true},
		{line: "dance", wantErr: true},
		{line: "", wantErr: true},
	}
	for _, tt := range tests {
		cmd, seed, err := parseCommand(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCommand(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if cmd != tt.cmd {
			t.Errorf("parseCommand(%q) cmd = %q, want %q", tt.line, cmd, tt.cmd)
		}
		if (seed != nil) != tt.hasSeed || (seed != nil && *seed != tt.seed) {
			t.Errorf("parseCommand(%q) seed = %v, want %d", tt.line, seed, tt.seed)
		}
	}
	if _, _, err := parseCommand("dance"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v, want ErrUnknownCommand", err)
	}
}

func TestHandleMap(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/map")
	if err != nil {
		t.Fatalf("GET /map: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before generation = %d, want 503", resp.StatusCode)
	}

	if _, err := s.Regenerate(seedPtr(4)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	resp, err = http.Get(ts.URL + "/map")
	if err != nil {
		t.Fatalf("GET /map: %v", err)
	}
	defer resp.Body.Close()

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "map" || msg.Map == nil || msg.Map.Seed != 4 {
		t.Errorf("GET /map = %+v", msg)
	}

	post, err := http.Post(ts.URL+"/map", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /map: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", post.StatusCode)
	}
}

func dialViewer(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestWebSocketViewer(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	if _, err := s.Regenerate(seedPtr(1)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	first := dialViewer(t, ts)
	if msg := readMessage(t, first); msg.Type != "map" || msg.Map.Seed != 1 {
		t.Fatalf("initial message = %+v, want map for seed 1", msg)
	}
	second := dialViewer(t, ts)
	readMessage(t, second)

	if err := first.WriteMessage(websocket.TextMessage, []byte("regenerate 6")); err != nil {
		t.Fatalf("write: %v", err)
	}
	for name, conn := range map[string]*websocket.Conn{"first": first, "second": second} {
		msg := readMessage(t, conn)
		if msg.Type != "map" || msg.Map.Seed != 6 || msg.Stats == nil || msg.Stats.Seed != 6 {
			t.Errorf("%s viewer broadcast = %+v, want map for seed 6", name, msg)
		}
	}

	if err := first.WriteMessage(websocket.TextMessage, []byte("regenerate -3")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, first); msg.Type != "error" || msg.Error != errBadSeed.Error() {
		t.Errorf("failed regeneration reply = %+v", msg)
	}
	if snap, _ := s.Snapshot(); snap.Seed != 6 {
		t.Errorf("published seed = %d, want 6", snap.Seed)
	}

	if err := first.WriteMessage(websocket.TextMessage, []byte("bogus")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, first); msg.Type != "error" {
		t.Errorf("unknown command reply = %+v", msg)
	}
}

func TestWebSocketViewer_NoMapYet(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialViewer(t, ts)
	if msg := readMessage(t, conn); msg.Type != "error" || msg.Error != ErrNoMap.Error() {
		t.Errorf("initial message = %+v, want no map error", msg)
	}
}

func TestWebSocketViewer_RateLimited(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = config.RateLimitConfig{MaxRegenerations: 1, WindowSeconds: 60, LockoutSeconds: 30, MaxLockoutSeconds: 60}
	gen := &fakeGenerator{}
	s := New(cfg, gen)
	defer s.Shutdown()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialViewer(t, ts)
	readMessage(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte("regenerate 1"))
	if msg := readMessage(t, conn); msg.Type != "map" {
		t.Fatalf("first regenerate = %+v, want map", msg)
	}
	conn.WriteMessage(websocket.TextMessage, []byte("regenerate 2"))
	if msg := readMessage(t, conn); msg.Type != "error" || !strings.Contains(msg.Error, "too many") {
		t.Errorf("second regenerate = %+v, want rate limit error", msg)
	}
	gen.mu.Lock()
	calls := gen.calls
	gen.mu.Unlock()
	if calls != 1 {
		t.Errorf("generator ran %d times, want 1", calls)
	}
}

func TestWebSocketViewer_ZeroRateLimitUsesDefaults(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = config.RateLimitConfig{}
	gen := &fakeGenerator{}
	s := New(cfg, gen)
	defer s.Shutdown()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialViewer(t, ts)
	readMessage(t, conn)

	// The default allows 10 regenerations per window.
	for i := 0; i < 10; i++ {
		conn.WriteMessage(websocket.TextMessage, []byte("regenerate"))
		if msg := readMessage(t, conn); msg.Type != "map" {
			t.Fatalf("regenerate %d = %+v, want map", i+1, msg)
		}
	}
	conn.WriteMessage(websocket.TextMessage, []byte("regenerate"))
	if msg := readMessage(t, conn); msg.Type != "error" || !strings.Contains(msg.Error, "too many") {
		t.Errorf("11th regenerate = %+v, want rate limit error", msg)
	}

	gen.mu.Lock()
	calls := gen.calls
	gen.mu.Unlock()
	if calls != 10 {
		t.Errorf("generator ran %d times, want 10", calls)
	}
}

func TestHandleStatus(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	s.StartTime = time.Now().Add(-90 * time.Second)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	getStatus := func() Status {
		t.Helper()
		resp, err := http.Get(ts.URL + "/status")
		if err != nil {
			t.Fatalf("GET /status: %v", err)
		}
		defer resp.Body.Close()
		var st Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return st
	}

	if st := getStatus(); st.HasMap || st.Viewers.Total != 0 || st.UptimeSeconds < 90 {
		t.Errorf("status before generation = %+v", st)
	}

	if _, err := s.Regenerate(seedPtr(8)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	conn := dialViewer(t, ts)
	readMessage(t, conn)

	st := getStatus()
	if !st.HasMap || st.Seed != 8 {
		t.Errorf("status map = has %v seed %d, want seed 8", st.HasMap, st.Seed)
	}
	if st.Viewers != (ViewerStats{Total: 1, IPs: 1, WebSocket: 1}) {
		t.Errorf("status viewers = %+v, want one websocket viewer", st.Viewers)
	}
}

func TestWebSocketViewer_OriginRejected(t *testing.T) {
	cfg := testServerConfig()
	cfg.WebSocket.AllowedOrigins = []string{"https://maps.example.com"}
	s := New(cfg, &fakeGenerator{})
	defer s.Shutdown()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	header := http.Header{"Origin": []string{"http://evil.com"}}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("dial with a foreign origin should fail")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		total := s.connLimiter.Stats().Total
		if total == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rejected upgrade should release its slot, %d held", total)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketViewer_ConnectionLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.Connections.MaxTotal = 1
	s := New(cfg, &fakeGenerator{})
	defer s.Shutdown()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialViewer(t, ts)
	readMessage(t, conn)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("second viewer should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second viewer response = %v, want 429", resp)
	}
}

func TestTelnetViewer(t *testing.T) {
	s := New(testServerConfig(), &fakeGenerator{})
	defer s.Shutdown()
	if _, err := s.Regenerate(seedPtr(1)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	done := make(chan struct{})
	go func() {
		s.handleClient(NewTelnetClient(serverConn), "pipe", formatText)
		close(done)
	}()

	client := NewTelnetClient(clientConn)
	want := []string{"Seed 1: 1 rooms (0 hidden), 0 connections", "..."}
	for _, w := range want {
		clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		line, err := client.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if line != w {
			t.Errorf("line = %q, want %q", line, w)
		}
	}

	if err := client.WriteLine("quit"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("quit should end the session")
	}
	if n := s.ViewerCount(); n != 0 {
		t.Errorf("ViewerCount() = %d after quit, want 0", n)
	}
}
