package watchdog

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// status tracks per-process health so persistent fetch failures are
// visible without digging through logs.
type status struct {
	mu sync.Mutex

	cycles                   int64
	lastCycle                time.Time
	consecutiveFetchFailures int64
	lastFetchError           string
	targets                  map[string]string
}

func newStatus() *status {
	return &status{targets: map[string]string{}}
}

func (s *status) recordCycle(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.lastCycle = at
}

func (s *status) recordFetchFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFetchFailures++
	s.lastFetchError = err.Error()
}

func (s *status) recordFetchSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFetchFailures = 0
	s.lastFetchError = ""
}

func (s *status) recordTarget(studentID, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[studentID] = state
}

type statusReport struct {
	Cycles                   int64             `json:"cycles"`
	LastCycle                string            `json:"last_cycle"`
	ConsecutiveFetchFailures int64             `json:"consecutive_fetch_failures"`
	LastFetchError           string            `json:"last_fetch_error,omitempty"`
	Targets                  map[string]string `json:"targets"`
}

// StatusMux returns the http handlers of the status surface.
func (s *Service) StatusMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/statusz", func(w http.ResponseWriter, r *http.Request) {
		s.status.mu.Lock()
		report := statusReport{
			Cycles:                   s.status.cycles,
			ConsecutiveFetchFailures: s.status.consecutiveFetchFailures,
			LastFetchError:           s.status.lastFetchError,
			Targets:                  map[string]string{},
		}
		if !s.status.lastCycle.IsZero() {
			report.LastCycle = s.status.lastCycle.Format(time.RFC3339)
		}
		for k, v := range s.status.targets {
			report.Targets[k] = v
		}
		s.status.mu.Unlock()

		w.Header().Set("content-type", "application/json")
		json.NewEncoder(w).Encode(report)
	})
	return mux
}
