package health

import (
	"net/http"
)

// Register mounts /healthz and /readyz. readyz reports the simulation state
// and answers 503 once the run has terminated.
func Register(mux *http.ServeMux, state func() string) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		s := "ready"
		if state != nil {
			s = state()
		}
		if s == "terminated" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write([]byte(s))
	})
}
