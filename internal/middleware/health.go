package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"
)

const (
	healthBudget  = 5 * time.Second
	dbPingTimeout = 2 * time.Second
)

type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a plain function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// DatabaseHealthChecker pings DB with a short deadline.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	if d.DB == nil {
		return errors.New("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	return d.DB.PingContext(ctx)
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthReport struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks"`
}

func runChecks(ctx context.Context, checkers map[string]HealthChecker) healthReport {
	rep := healthReport{Status: "healthy", Timestamp: time.Now(), Checks: make(map[string]checkResult, len(checkers))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, c := range checkers {
		name, c := name, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := checkResult{Status: "healthy"}
			if err := c.Check(ctx); err != nil {
				res = checkResult{Status: "unhealthy", Message: err.Error()}
			}
			mu.Lock()
			rep.Checks[name] = res
			if res.Status != "healthy" {
				rep.Status = "unhealthy"
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return rep
}

// HealthHandler runs every checker concurrently and answers 503 if any fails.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthBudget)
		defer cancel()

		rep := runChecks(ctx, checkers)
		code := http.StatusOK
		if rep.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(rep)
	}
}

func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{"ready", time.Now()})
}

func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// StatusHandler serves GET /health.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
