package http

import (
	"context"
	"net/http"

	"finview/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(ctx context.Context) (any, error) {
		return s.ctrl.LoadTransactions(ctx)
	})
}

// handleCreateTransaction creates in the partition named by the path; an
// unplanned transaction never recurs whatever the body says.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.run(w, r, func(ctx context.Context) (any, error) {
		kind, err := pathKind(r)
		if err != nil {
			return nil, err
		}
		tx, err := ParseTransaction(p, "")
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.CreateTransaction(ctx, kind, tx); err != nil {
			return nil, err
		}
		return s.ctrl.Transactions(), nil
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		tx, err := ParseTransaction(p, id)
		if err != nil {
			return nil, err
		}
		if err := s.ctrl.UpdateTransaction(ctx, tx); err != nil {
			return nil, err
		}
		return s.ctrl.Transactions(), nil
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.idRoute(w, r, func(ctx context.Context, id core.ID) (any, error) {
		if err := s.ctrl.DeleteTransaction(ctx, id); err != nil {
			return nil, err
		}
		return s.ctrl.Transactions(), nil
	})
}
