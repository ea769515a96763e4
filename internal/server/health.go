package server

import (
	"context"
	"net/http"
	"time"
)

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.ok(w, "Welcome to Backend Jawara API", nil)
}

type healthView struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	view := healthView{Status: "healthy", Database: "skipped", Timestamp: s.now().UTC()}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("database ping failed")
			view.Status = "unhealthy"
			view.Database = "unreachable"
			s.writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "Service unhealthy", Data: view})
			return
		}
		view.Database = "ok"
	}

	s.ok(w, "Service healthy", view)
}
