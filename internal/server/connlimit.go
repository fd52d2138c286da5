package server

import (
	"errors"
	"net"
	"sync"

	"github.com/spyice/room-generator/internal/config"
)

var (
	ErrTooManyViewers       = errors.New("server: viewer limit reached")
	ErrTooManyViewersFromIP = errors.New("server: viewer limit reached for this address")
)

// ViewerStats counts open viewer sessions.
type ViewerStats struct {
	Total     int `json:"total"`
	IPs       int `json:"ips"`
	WebSocket int `json:"websocket"`
	Telnet    int `json:"telnet"`
}

// ConnLimiter admits viewer sessions, capped per IP and in total.
// A zero cap means unlimited.
type ConnLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	byFormat map[messageFormat]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewConnLimiter creates a limiter with the caps from cfg.
func NewConnLimiter(cfg config.ConnectionsConfig) *ConnLimiter {
	return &ConnLimiter{
		perIP:    make(map[string]int),
		byFormat: make(map[messageFormat]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// Acquire reserves a session for a viewer from ip. The returned release
// frees it exactly once, however often it is called.
func (c *ConnLimiter) Acquire(ip string, format messageFormat) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.total >= c.maxTotal {
		return nil, ErrTooManyViewers
	}
	if c.maxPerIP > 0 && c.perIP[ip] >= c.maxPerIP {
		return nil, ErrTooManyViewersFromIP
	}

	c.perIP[ip]++
	c.byFormat[format]++
	c.total++

	var once sync.Once
	return func() {
		once.Do(func() { c.release(ip, format) })
	}, nil
}

// release drops one session of ip. An IP without sessions is left alone.
func (c *ConnLimiter) release(ip string, format messageFormat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.perIP[ip] == 0 {
		return
	}
	c.perIP[ip]--
	if c.perIP[ip] == 0 {
		delete(c.perIP, ip)
	}
	if c.byFormat[format] > 0 {
		c.byFormat[format]--
	}
	c.total--
}

// Stats returns the open sessions by address and viewer format.
func (c *ConnLimiter) Stats() ViewerStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ViewerStats{
		Total:     c.total,
		IPs:       len(c.perIP),
		WebSocket: c.byFormat[formatJSON],
		Telnet:    c.byFormat[formatText],
	}
}

// IPCount returns the open sessions of ip.
func (c *ConnLimiter) IPCount(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perIP[ip]
}

// extractIP extracts the IP address from a remote address string (ip:port format).
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr // Return as-is if can't split
	}
	return host
}
