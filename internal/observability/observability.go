package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

// Collector counts requests per normalized route and logs one JSON line per request.
type Collector struct {
	pool *pgxpool.Pool

	mu           sync.RWMutex
	requestStats map[key]stat
	startedAt    time.Time
}

// NewCollector builds a collector; pool may be nil when Postgres is not configured.
func NewCollector(pool *pgxpool.Pool) *Collector {
	return &Collector{
		pool:         pool,
		requestStats: make(map[key]stat),
		startedAt:    time.Now(),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		attemptID := extractAttemptID(r.URL.Path)
		if attemptID == "" {
			attemptID = r.URL.Query().Get("attempt_id")
		}

		entry := map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"attempt_id": attemptID,
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": latencyMS,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var sb strings.Builder
	sb.WriteString("# quiz attempt service metrics\n")
	sb.WriteString("# TYPE quiz_uptime_seconds gauge\n")
	sb.WriteString(fmt.Sprintf("quiz_uptime_seconds %.0f\n", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE quiz_http_requests_total counter\n")
	sb.WriteString("# TYPE quiz_http_request_latency_ms_sum counter\n")
	sb.WriteString("# TYPE quiz_http_request_latency_ms_avg gauge\n")
	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=\"%s\",path=\"%s\",status=\"%d\"", k.Method, k.Path, k.Status)
		sb.WriteString(fmt.Sprintf("quiz_http_requests_total{%s} %d\n", labels, s.Count))
		sb.WriteString(fmt.Sprintf("quiz_http_request_latency_ms_sum{%s} %.3f\n", labels, s.LatencyMS))
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		sb.WriteString(fmt.Sprintf("quiz_http_request_latency_ms_avg{%s} %.3f\n", labels, avg))
	}

	if c.pool != nil {
		ps := c.pool.Stat()
		sb.WriteString("# TYPE quiz_db_total_connections gauge\n")
		sb.WriteString(fmt.Sprintf("quiz_db_total_connections %d\n", ps.TotalConns()))
		sb.WriteString("# TYPE quiz_db_acquired_connections gauge\n")
		sb.WriteString(fmt.Sprintf("quiz_db_acquired_connections %d\n", ps.AcquiredConns()))
		sb.WriteString("# TYPE quiz_db_idle_connections gauge\n")
		sb.WriteString(fmt.Sprintf("quiz_db_idle_connections %d\n", ps.IdleConns()))
		sb.WriteString("# TYPE quiz_db_acquire_count counter\n")
		sb.WriteString(fmt.Sprintf("quiz_db_acquire_count %d\n", ps.AcquireCount()))
		sb.WriteString("# TYPE quiz_db_acquire_duration_ms counter\n")
		sb.WriteString(fmt.Sprintf("quiz_db_acquire_duration_ms %.3f\n", float64(ps.AcquireDuration().Microseconds())/1000.0))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// normalizedPath folds uuid and numeric segments into {id} to keep label cardinality low.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if isID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isID(segment string) bool {
	if _, err := strconv.ParseInt(segment, 10, 64); err == nil {
		return true
	}
	_, err := uuid.Parse(segment)
	return err == nil
}

func extractAttemptID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "attempts" && isID(parts[i+1]) {
			return parts[i+1]
		}
	}
	return ""
}
