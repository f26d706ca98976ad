package http

import (
	"context"
	"net/http"
)

// handleDashboard loads every dashboard section. Query filters replace the
// held ones; absent filters keep them.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		filters, err := ParseDashboardFilters(r.URL.Query())
		if err != nil {
			return nil, err
		}
		return s.ctrl.LoadDashboard(ctx, filters)
	})
}

// handleEditBalance applies the new balance optimistically and re-reads nothing.
func (s *Server) handleEditBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		value, err := p.Decimal("value")
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.EditBalance(ctx, value); err != nil {
			return nil, err
		}
		return s.ctrl.Dashboard(), nil
	})
}

func (s *Server) handleNextTopGoals(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(s.ctrl.NextTopGoals()).Write(w)
}

func (s *Server) handlePreviousTopGoals(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(s.ctrl.PreviousTopGoals()).Write(w)
}
