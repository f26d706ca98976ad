// Package export writes the transaction views to a tabular sink such as a spreadsheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"finview/internal/core"
	"finview/internal/format"
	"finview/internal/log"
	"finview/internal/ports"
	"finview/internal/presenter"
)

// DefaultSheet is the table name used when none is configured.
const DefaultSheet = "Transactions"

// Header is the first row of every exported table.
var Header = []string{"Kind", "#", "Date", "Description", "Type", "Recurrence", "Amount", "Amount (formatted)"}

// Table is a named grid of cells; Rows exclude the header.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Writer replaces the content of a table in the sink.
type Writer interface {
	WriteTable(ctx context.Context, t Table) error
}

// Result summarises one export.
type Result struct {
	Table      string
	Rows       int
	ExportedAt time.Time
}

// Exporter reads both transaction partitions and writes them as one table.
type Exporter struct {
	source ports.TransactionStore
	writer Writer
	rows   presenter.Rows
	sheet  string
	logger *log.Logger
}

func NewExporter(source ports.TransactionStore, writer Writer, sheet string, formatter *format.Formatter, clock format.Clock, logger *log.Logger) (*Exporter, error) {
	if source == nil {
		return nil, errors.New("export source is required")
	}
	if writer == nil {
		return nil, errors.New("export writer is required")
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	if formatter == nil {
		formatter = format.Default()
	}
	if clock == nil {
		clock = format.SystemClock{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Exporter{
		source: source,
		writer: writer,
		rows:   presenter.Rows{Format: formatter, Clock: clock},
		sheet:  sheet,
		logger: logger.WithComponent(log.ComponentExport),
	}, nil
}

// Build loads planned and unplanned transactions concurrently and renders the table:
// planned entries first, oldest first, then unplanned entries, most recent first.
func (e *Exporter) Build(ctx context.Context) (Table, error) {
	var planned, unplanned []core.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := e.source.ListTransactions(gctx, core.KindPlanned)
		if err != nil {
			return fmt.Errorf("list planned transactions: %w", err)
		}
		planned = presenter.PlannedView(txs)
		return nil
	})
	g.Go(func() error {
		txs, err := e.source.ListTransactions(gctx, core.KindUnplanned)
		if err != nil {
			return fmt.Errorf("list unplanned transactions: %w", err)
		}
		unplanned = presenter.UnplannedView(txs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Table{}, err
	}

	t := Table{Name: e.sheet, Header: Header, Rows: make([][]string, 0, len(planned)+len(unplanned))}
	for _, row := range e.rows.Transactions(planned) {
		t.Rows = append(t.Rows, cells(row))
	}
	for _, row := range e.rows.Transactions(unplanned) {
		t.Rows = append(t.Rows, cells(row))
	}
	return t, nil
}

func cells(r presenter.TransactionRow) []string {
	return []string{
		string(r.Kind()),
		strconv.Itoa(r.TransactionNumber),
		r.TransactionDate.String(),
		r.Description,
		r.TypeLabel,
		r.RecurrenceLabel,
		r.Amount.StringFixed(2),
		r.AmountText,
	}
}

// Export builds the table and writes it.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	start := time.Now()
	t, err := e.Build(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := e.writer.WriteTable(ctx, t); err != nil {
		return Result{}, fmt.Errorf("write table %s: %w", t.Name, err)
	}

	res := Result{Table: t.Name, Rows: len(t.Rows), ExportedAt: time.Now().UTC()}
	e.logger.InfoContext(ctx, "Exported transactions",
		log.FieldOperation, log.OpExport,
		log.FieldCount, res.Rows,
		"table", res.Table,
		log.FieldDuration, time.Since(start).Milliseconds())
	return res, nil
}
