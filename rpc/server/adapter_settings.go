package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// maxBodyBytes limits the size of a POST /settings body
const maxBodyBytes = 4 << 20

// settingsAdapter translates the settings HTTP contract to store.IStore calls.
// Values are kept as the raw JSON they were posted with.
type settingsAdapter struct {
	store store.IStore
}

type putRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// handleGet answers with a JSON object of every requested key that exists.
// If none exists the answer is 404.
func (a *settingsAdapter) handleGet(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["keys"]
	if len(keys) == 0 {
		a.fail(w, http.MethodGet, http.StatusBadRequest, "missing keys parameter")
		return
	}

	found := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		value, ok, err := a.store.Get(key)
		if err != nil {
			Logger.Errorf("failed to read setting %s: %v", key, err)
			a.fail(w, http.MethodGet, http.StatusInternalServerError, "failed to read settings")
			return
		}
		if ok {
			found[key] = value
		}
	}
	if len(found) == 0 {
		a.fail(w, http.MethodGet, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(found); err != nil {
		Logger.Errorf("failed to write response: %v", err)
	}
	countRequest(http.MethodGet, http.StatusOK)
}

// handlePost stores a single setting. Last write wins.
func (a *settingsAdapter) handlePost(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.fail(w, http.MethodPost, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if req.Key == "" {
		a.fail(w, http.MethodPost, http.StatusBadRequest, "missing key")
		return
	}
	if len(req.Value) == 0 {
		a.fail(w, http.MethodPost, http.StatusBadRequest, "missing value")
		return
	}

	if err := a.store.Set(req.Key, req.Value); err != nil {
		Logger.Errorf("failed to write setting %s: %v", req.Key, err)
		a.fail(w, http.MethodPost, http.StatusInternalServerError, "failed to write setting")
		return
	}

	w.WriteHeader(http.StatusNoContent)
	countRequest(http.MethodPost, http.StatusNoContent)
}

func (a *settingsAdapter) fail(w http.ResponseWriter, method string, status int, msg string) {
	http.Error(w, msg, status)
	countRequest(method, status)
}

func countRequest(method string, status int) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_settings_requests_total{method=%q,status="%d"}`, method, status)).Inc()
}
