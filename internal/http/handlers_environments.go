package http

import (
	"context"
	"net/http"

	"finview/internal/core"
)

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		return s.ctrl.LoadEnvironments(ctx)
	})
}

func (s *Server) handleCreateEnvironment(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		env, err := ParseEnvironment(p, "")
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.CreateEnvironment(ctx, env); err != nil {
			return nil, err
		}
		return s.ctrl.Environments(), nil
	})
}

func (s *Server) handleUpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		env, err := ParseEnvironment(p, id)
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.UpdateEnvironment(ctx, env); err != nil {
			return nil, err
		}
		return s.ctrl.Environments(), nil
	})
}

func (s *Server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		if err := s.ctrl.DeleteEnvironment(ctx, id); err != nil {
			return nil, err
		}
		return s.ctrl.Environments(), nil
	})
}

func (s *Server) handleAccessEnvironment(w http.ResponseWriter, r *http.Request) {
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		if err := s.ctrl.AccessEnvironment(ctx, id); err != nil {
			return nil, err
		}
		return s.sessionView(), nil
	})
}

func (s *Server) handleLeaveEnvironment(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		if err := s.ctrl.LeaveEnvironment(ctx); err != nil {
			return nil, err
		}
		return s.sessionView(), nil
	})
}
