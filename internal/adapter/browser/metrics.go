package browser

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the backend's counters. Command counters are keyed by
// route kind so the exposition can break them out per command.
type Metrics struct {
	mu          sync.Mutex
	commands    map[string]*atomic.Int64
	CmdErrors   atomic.Int64
	FramesSent  atomic.Int64
	FrameBytes  atomic.Int64
	StreamsOpen atomic.Int64
	StreamsSeen atomic.Int64
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{commands: make(map[string]*atomic.Int64)}
}

// CountCommand increments the per-kind command counter.
func (m *Metrics) CountCommand(kind string) {
	m.mu.Lock()
	c, ok := m.commands[kind]
	if !ok {
		c = &atomic.Int64{}
		m.commands[kind] = c
	}
	m.mu.Unlock()
	c.Add(1)
}

func (m *Metrics) commandCounts() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.commands))
	for k, c := range m.commands {
		out[k] = c.Load()
	}
	return out
}

// metricsHandler returns an HTTP handler for GET /metrics in Prometheus
// text format. The lightweight hand-written exposition avoids pulling
// in the full prometheus client.
func metricsHandler(startTime time.Time, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		fmt.Fprintf(w, "# HELP webrelay_commands_total Commands executed, by kind.\n")
		fmt.Fprintf(w, "# TYPE webrelay_commands_total counter\n")
		for kind, n := range metrics.commandCounts() {
			fmt.Fprintf(w, "webrelay_commands_total{kind=%q} %d\n", kind, n)
		}

		fmt.Fprintf(w, "# HELP webrelay_command_errors_total Commands that failed at the driver.\n")
		fmt.Fprintf(w, "# TYPE webrelay_command_errors_total counter\n")
		fmt.Fprintf(w, "webrelay_command_errors_total %d\n", metrics.CmdErrors.Load())

		fmt.Fprintf(w, "# HELP webrelay_frames_sent_total Screenshot frames pushed to stream clients.\n")
		fmt.Fprintf(w, "# TYPE webrelay_frames_sent_total counter\n")
		fmt.Fprintf(w, "webrelay_frames_sent_total %d\n", metrics.FramesSent.Load())

		fmt.Fprintf(w, "# HELP webrelay_frame_bytes_total Bytes of frame data pushed.\n")
		fmt.Fprintf(w, "# TYPE webrelay_frame_bytes_total counter\n")
		fmt.Fprintf(w, "webrelay_frame_bytes_total %d\n", metrics.FrameBytes.Load())

		fmt.Fprintf(w, "# HELP webrelay_stream_clients Currently connected stream clients.\n")
		fmt.Fprintf(w, "# TYPE webrelay_stream_clients gauge\n")
		fmt.Fprintf(w, "webrelay_stream_clients %d\n", metrics.StreamsOpen.Load())

		fmt.Fprintf(w, "# HELP webrelay_stream_clients_total Stream clients accepted since start.\n")
		fmt.Fprintf(w, "# TYPE webrelay_stream_clients_total counter\n")
		fmt.Fprintf(w, "webrelay_stream_clients_total %d\n", metrics.StreamsSeen.Load())

		fmt.Fprintf(w, "# HELP webrelay_uptime_seconds Seconds since the backend started.\n")
		fmt.Fprintf(w, "# TYPE webrelay_uptime_seconds gauge\n")
		fmt.Fprintf(w, "webrelay_uptime_seconds %.0f\n", time.Since(startTime).Seconds())

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		fmt.Fprintf(w, "# HELP go_goroutines Number of goroutines.\n")
		fmt.Fprintf(w, "# TYPE go_goroutines gauge\n")
		fmt.Fprintf(w, "go_goroutines %d\n", runtime.NumGoroutine())

		fmt.Fprintf(w, "# HELP go_memstats_alloc_bytes Bytes of allocated heap objects.\n")
		fmt.Fprintf(w, "# TYPE go_memstats_alloc_bytes gauge\n")
		fmt.Fprintf(w, "go_memstats_alloc_bytes %d\n", mem.Alloc)

		fmt.Fprintf(w, "# HELP go_memstats_sys_bytes Total bytes of memory obtained from the OS.\n")
		fmt.Fprintf(w, "# TYPE go_memstats_sys_bytes gauge\n")
		fmt.Fprintf(w, "go_memstats_sys_bytes %d\n", mem.Sys)
	}
}
