package engine

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/allowlist"
)

// RegisterRoutes mounts the suggestion engine API routes. Domain outcomes
// (not_a_folder, unknown_suggestion, ...) travel in the Ack body with a 200;
// HTTP error codes are reserved for malformed requests and storage failures.
func RegisterRoutes(r chi.Router, eng *Engine) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/suggest", handleSuggest(eng))
		r.Post("/feedback", handleFeedback(eng))
		r.Get("/status", handleStatus(eng))
		r.Route("/allowlist", func(r chi.Router) {
			r.Get("/", handleAllowlistList(eng))
			r.Post("/add", handleAllowlistAdd(eng))
			r.Post("/remove", handleAllowlistRemove(eng))
			r.Post("/clear", handleAllowlistClear(eng))
			r.Post("/reindex", handleReindex(eng))
		})
	})
}

func handleSuggest(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev FileEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if ev.Name == "" && ev.Path == "" {
			http.Error(w, `{"error":"name or path is required"}`, http.StatusBadRequest)
			return
		}

		sg := eng.Suggest(r.Context(), ev)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sg)
	}
}

func handleFeedback(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fb FeedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if fb.SuggestionID == "" {
			http.Error(w, `{"error":"suggestion_id is required"}`, http.StatusBadRequest)
			return
		}

		ack := eng.Feedback(r.Context(), fb)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ack)
	}
}

func handleStatus(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(eng.Status())
	}
}

func handleAllowlistList(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := eng.AllowlistEntries()
		if entries == nil {
			entries = []allowlist.Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

type allowlistAddRequest struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

func handleAllowlistAdd(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req allowlistAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Path == "" {
			http.Error(w, `{"error":"path is required"}`, http.StatusBadRequest)
			return
		}

		ack, err := eng.AllowlistAdd(r.Context(), req.Path, req.Description)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ack)
	}
}

type allowlistRemoveRequest struct {
	Path string `json:"path"`
}

func handleAllowlistRemove(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req allowlistRemoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Path == "" {
			http.Error(w, `{"error":"path is required"}`, http.StatusBadRequest)
			return
		}

		ack, err := eng.AllowlistRemove(r.Context(), req.Path)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ack)
	}
}

func handleAllowlistClear(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ack, err := eng.AllowlistClear(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ack)
	}
}

func handleReindex(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ack := eng.Reindex(r.Context())

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ack)
	}
}
