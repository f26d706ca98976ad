package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finview/internal/amqp"
	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/presenter"
)

// TransactionsView holds both partitions, each numbered from 1 in display order.
type TransactionsView struct {
	Planned   []presenter.TransactionRow `json:"planned"`
	Unplanned []presenter.TransactionRow `json:"unplanned"`
}

// Transactions renders the transactions currently held.
func (c *Controller) Transactions() TransactionsView {
	c.mu.RLock()
	planned, unplanned := c.planned, c.unplanned
	c.mu.RUnlock()

	rows := c.rows()
	return TransactionsView{
		Planned:   rows.Transactions(planned),
		Unplanned: rows.Transactions(unplanned),
	}
}

// LoadTransactions fetches both partitions concurrently. Each failed fetch
// posts its own message; a partition that loaded is applied regardless.
func (c *Controller) LoadTransactions(ctx context.Context) (TransactionsView, error) {
	var g errgroup.Group

	g.Go(func() error {
		txs, err := c.backend.ListTransactions(ctx, core.KindPlanned)
		if err != nil {
			return c.backendError(ctx, "transactions.planned."+log.OpList, err, "Failed to load planned transactions.")
		}
		view := presenter.PlannedView(txs)
		c.mu.Lock()
		c.planned = view
		c.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		txs, err := c.backend.ListTransactions(ctx, core.KindUnplanned)
		if err != nil {
			return c.backendError(ctx, "transactions.unplanned."+log.OpList, err, "Failed to load one-time transactions.")
		}
		view := presenter.UnplannedView(txs)
		c.mu.Lock()
		c.unplanned = view
		c.mu.Unlock()
		return nil
	})

	err := g.Wait()
	return c.Transactions(), err
}

// CreateTransaction creates tx in the kind's partition. Unplanned entries never recur.
func (c *Controller) CreateTransaction(ctx context.Context, kind core.TransactionKind, tx core.Transaction) error {
	if !kind.Valid() {
		return c.invalid(ctx, "transactions."+log.OpCreate, ErrUnknownKind)
	}
	if kind == core.KindUnplanned {
		tx.RecurrenceType = core.RecurrenceNone
	}
	if err := tx.Validate(); err != nil {
		return c.invalid(ctx, "transactions."+log.OpCreate, err)
	}

	if err := c.backend.CreateTransaction(ctx, kind, tx); err != nil {
		return c.backendError(ctx, "transactions."+log.OpCreate, err, "Failed to create transaction.")
	}

	c.succeed("Transaction created successfully!")
	c.publish(ctx, amqp.EntityTransaction, amqp.ActionCreated, "")
	c.refreshTransactions(ctx)
	return nil
}

// UpdateTransaction saves tx through the endpoint of the partition its recurrence selects.
func (c *Controller) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return c.invalid(ctx, "transactions."+log.OpUpdate, err)
	}

	if err := c.backend.UpdateTransaction(ctx, tx.Kind(), tx); err != nil {
		return c.backendError(ctx, "transactions."+log.OpUpdate, err, "Failed to update transaction.")
	}

	c.succeed("Transaction updated successfully!")
	c.publish(ctx, amqp.EntityTransaction, amqp.ActionUpdated, tx.ID)
	c.refreshTransactions(ctx)
	return nil
}

// DeleteTransaction removes the entry and reports it by its display number.
func (c *Controller) DeleteTransaction(ctx context.Context, id core.ID) error {
	label := c.transactionLabel(id)

	if err := c.backend.DeleteTransaction(ctx, id); err != nil {
		return c.backendError(ctx, "transactions."+log.OpDelete, err, "Failed to delete transaction.")
	}

	c.succeed(fmt.Sprintf("Transaction %q deleted successfully!", label))
	c.publish(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	c.refreshTransactions(ctx)
	return nil
}

func (c *Controller) transactionLabel(id core.ID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, list := range [][]core.Transaction{c.planned, c.unplanned} {
		for _, tx := range list {
			if tx.ID == id && tx.TransactionNumber > 0 {
				return fmt.Sprint(tx.TransactionNumber)
			}
		}
	}
	return id.String()
}

func (c *Controller) refreshTransactions(ctx context.Context) {
	_, _ = c.LoadTransactions(ctx)
}
