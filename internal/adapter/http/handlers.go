package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

const banner = "Hello from resources"

func handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, banner) //nolint:errcheck // best-effort body
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.WorkOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid work order document")
		return
	}

	created, err := s.orders.Create(r.Context(), order)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.WorkOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid work order document")
		return
	}

	updated, err := s.orders.Update(r.Context(), chi.URLParam(r, "id"), order)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, updated)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleOrdersByUser accepts the user name either as the raw body or as a
// JSON string.
func (s *Server) handleOrdersByUser(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	body = bytes.TrimSpace(body)

	user := string(body)
	if len(body) > 0 && body[0] == '"' {
		if err := json.Unmarshal(body, &user); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user name")
			return
		}
	}
	user = strings.TrimSpace(user)
	if user == "" {
		writeError(w, http.StatusBadRequest, "user name is required")
		return
	}

	orders, err := s.orders.ListByUser(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var zips []string
	if err := json.NewDecoder(r.Body).Decode(&zips); err != nil || zips == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of zip code strings")
		return
	}

	writeJSON(w, http.StatusOK, s.weather.Aggregate(r.Context(), zips))
}

// writeServiceError maps the domain error taxonomy onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
