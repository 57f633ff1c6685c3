package health

import (
	"encoding/json"
	"net/http"
)

// Sizer reports how many records a store currently holds.
type Sizer interface {
	Len() int
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Stores map[string]Sizer
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness along with the size of each in-memory store.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	stores := make(map[string]int, len(h.Stores))
	for name, s := range h.Stores {
		if s == nil {
			continue
		}
		stores[name] = s.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"stores": stores,
	})
}
