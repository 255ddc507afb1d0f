package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// counters are process-wide and exposed on /metrics.
var counters struct {
	requests, inFlight, ok, failed atomic.Int64
	analyses, running, analysisErr atomic.Int64
	aiFallbacks                    atomic.Int64
}

var startedAt = time.Now()

func IncrementAnalyses()        { counters.analyses.Add(1) }
func IncrementAnalysesRunning() { counters.running.Add(1) }
func DecrementAnalysesRunning() { counters.running.Add(-1) }
func IncrementAnalysesFailed()  { counters.analysisErr.Add(1) }

// IncrementAIFallbacks counts reports built without usable model output
// while the gateway was configured.
func IncrementAIFallbacks() { counters.aiFallbacks.Add(1) }

type memStats struct {
	Alloc      uint64 `json:"alloc_bytes"`
	TotalAlloc uint64 `json:"total_alloc_bytes"`
	Sys        uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
}

type snapshot struct {
	Requests        int64    `json:"requests_total"`
	InFlight        int64    `json:"requests_in_progress"`
	RequestsOK      int64    `json:"requests_success"`
	RequestsFailed  int64    `json:"requests_failed"`
	Analyses        int64    `json:"analyses_total"`
	AnalysesRunning int64    `json:"analyses_running"`
	AnalysesFailed  int64    `json:"analyses_failed"`
	AIFallbacks     int64    `json:"ai_fallbacks"`
	UptimeSeconds   float64  `json:"uptime_seconds"`
	Goroutines      int      `json:"goroutines"`
	Memory          memStats `json:"memory"`
}

func takeSnapshot() snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return snapshot{
		Requests:        counters.requests.Load(),
		InFlight:        counters.inFlight.Load(),
		RequestsOK:      counters.ok.Load(),
		RequestsFailed:  counters.failed.Load(),
		Analyses:        counters.analyses.Load(),
		AnalysesRunning: counters.running.Load(),
		AnalysesFailed:  counters.analysisErr.Load(),
		AIFallbacks:     counters.aiFallbacks.Load(),
		UptimeSeconds:   time.Since(startedAt).Seconds(),
		Goroutines:      runtime.NumGoroutine(),
		Memory:          memStats{m.Alloc, m.TotalAlloc, m.Sys, m.NumGC},
	}
}

// MetricsMiddleware counts requests; any status of 400 or above is a failure.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counters.requests.Add(1)
		counters.inFlight.Add(1)
		defer counters.inFlight.Add(-1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		if rw.statusCode < http.StatusBadRequest {
			counters.ok.Add(1)
		} else {
			counters.failed.Add(1)
		}
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(takeSnapshot())
}
