package http

import (
	"context"
	"net/http"

	"finview/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		return s.ctrl.LoadGoals(ctx)
	})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		form, err := ParseGoalForm(p, "")
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.CreateGoal(ctx, form); err != nil {
			return nil, err
		}
		return s.ctrl.Goals(), nil
	})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		form, err := ParseGoalForm(p, id)
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.UpdateGoal(ctx, form); err != nil {
			return nil, err
		}
		return s.ctrl.Goals(), nil
	})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		if err := s.ctrl.DeleteGoal(ctx, id); err != nil {
			return nil, err
		}
		return s.ctrl.Goals(), nil
	})
}
