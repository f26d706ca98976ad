package presenter

import (
	"slices"

	"finview/internal/core"
)

// TransactionGroups is the transaction list split into planned and unplanned entries.
type TransactionGroups struct {
	Planned   []core.Transaction `json:"planned"`
	Unplanned []core.Transaction `json:"unplanned"`
}

// ClassifyTransactions partitions txs and prepares each partition for display.
func ClassifyTransactions(txs []core.Transaction) TransactionGroups {
	var planned, unplanned []core.Transaction
	for _, tx := range txs {
		if tx.IsPlanned() {
			planned = append(planned, tx)
		} else {
			unplanned = append(unplanned, tx)
		}
	}
	return TransactionGroups{
		Planned:   PlannedView(planned),
		Unplanned: UnplannedView(unplanned),
	}
}

// PlannedView keeps the planned entries of txs, oldest first, numbered from 1.
func PlannedView(txs []core.Transaction) []core.Transaction {
	out := filter(txs, core.Transaction.IsPlanned)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return a.TransactionDate.Compare(b.TransactionDate)
	})
	return number(out)
}

// UnplannedView keeps the unplanned entries of txs, most recent first, numbered from 1.
func UnplannedView(txs []core.Transaction) []core.Transaction {
	out := filter(txs, func(tx core.Transaction) bool { return !tx.IsPlanned() })
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.TransactionDate.Compare(a.TransactionDate)
	})
	return number(out)
}

func filter(txs []core.Transaction, keep func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// number assigns positional display numbers after sorting.
func number(txs []core.Transaction) []core.Transaction {
	for i := range txs {
		txs[i].TransactionNumber = i + 1
	}
	return txs
}
