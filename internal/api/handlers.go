package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	cerrors "github.com/braint-ru/catalog/internal/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch serves GET /api/search?q=&limit=. A missing q is an empty
// query; an unparsable limit selects the default.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = 0
	}
	s.writeJSON(w, http.StatusOK, s.catalog.Search(r.Context(), q.Get("q"), limit))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.Neighbors(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	groups, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Status())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no route for " + r.URL.Path})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: r.Method + " not allowed"})
}

// writeError maps a catalogue error to a status code. Only NotFound keeps
// its message; everything else is reported as a generic failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *cerrors.CatalogError
	if errors.As(err, &ce) && ce.Code == cerrors.ErrCodeNotFound {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:      ce.Message,
			Code:       ce.Code,
			Suggestion: ce.Suggestion,
		})
		return
	}

	attrs := []any{slog.String("path", r.URL.Path)}
	for _, a := range cerrors.LogAttrs(err) {
		attrs = append(attrs, a)
	}
	s.logger.Error("request failed", attrs...)
	s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal error",
		Code:  cerrors.ErrCodeInternal,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", slog.String("error", err.Error()))
	}
}
