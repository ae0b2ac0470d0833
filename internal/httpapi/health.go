package httpapi

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var startTime = time.Now()

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	Goroutines    int     `json:"goroutines"`
	MemoryRSS     uint64  `json:"memoryRssBytes,omitempty"`
	CPUPercent    float64 `json:"cpuPercent,omitempty"`
	WSClients     int     `json:"wsClients,omitempty"`
}

// handleHealth reports liveness plus coarse process readings. The process
// probes are best effort; a probe failure never fails the health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			resp.MemoryRSS = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			resp.CPUPercent = cpu
		}
	}

	if s.clientCount != nil {
		resp.WSClients = s.clientCount()
	}

	writeJSON(w, http.StatusOK, resp)
}
