package http

import (
	"context"
	"net/http"

	"finview/internal/core"
	"finview/internal/notify"
)

// SessionView tells the page whether it is logged in and inside an environment.
type SessionView struct {
	Authenticated bool   `json:"authenticated"`
	EnvironmentID string `json:"environmentId,omitempty"`
}

func (s *Server) sessionView() SessionView {
	sess := s.ctrl.Session()
	return SessionView{Authenticated: sess.Authenticated(), EnvironmentID: sess.EnvironmentID()}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		if err := s.ctrl.Login(ctx, ParseCredentials(p)); err != nil {
			return nil, err
		}
		return s.sessionView(), nil
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		if err := s.ctrl.Register(ctx, ParseRegistration(p)); err != nil {
			return nil, err
		}
		return s.sessionView(), nil
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		if err := s.ctrl.Logout(ctx); err != nil {
			return nil, err
		}
		return s.sessionView(), nil
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		return s.ctrl.LoadRanking(ctx)
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		return s.ctrl.LoadUser(ctx)
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		upd, err := ParseUserUpdate(p)
		if err != nil {
			return nil, err
		}
		return s.ctrl.UpdateUser(ctx, upd)
	})
}

// MessageView is the current slot content, if any.
type MessageView struct {
	Message *notify.Message `json:"message"`
}

func (s *Server) handleGetMessage(w http.ResponseWriter, _ *http.Request) {
	var view MessageView
	if msg, ok := s.ctrl.Message(); ok {
		view.Message = &msg
	}
	NewHTMXResponse().JSON(view).Write(w)
}

func (s *Server) handleDismissMessage(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.DismissMessage()
	NewHTMXResponse().Status(http.StatusNoContent).Write(w)
}

// idRoute adapts an operation on the {id} wildcard.
func (s *Server) idRoute(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id core.ID) (any, error)) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		id, err := pathID(r)
		if err != nil {
			return nil, err
		}
		return op(ctx, id)
	})
}

