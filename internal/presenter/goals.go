// Package presenter derives classified, sorted, paginated and chart-ready views
// from the raw lists returned by the finance API. Every function is pure.
package presenter

import (
	"slices"
	"time"

	"finview/internal/core"
)

// GoalGroups is the goal list split by recurrence.
type GoalGroups struct {
	OneTime   []core.Goal `json:"oneTime"`
	Recurring []core.Goal `json:"recurring"`
}

var epoch = time.Unix(0, 0).UTC()

// dueKey orders one-time goals; a missing date counts as the epoch start.
func dueKey(g core.Goal) time.Time {
	if g.SingleDate.IsEmpty() {
		return epoch
	}
	return g.SingleDate.Day().Time
}

// ClassifyGoals splits goals into one-time goals sorted by due date and recurring
// goals sorted by period code. Both sorts are stable.
func ClassifyGoals(goals []core.Goal) GoalGroups {
	groups := GoalGroups{
		OneTime:   []core.Goal{},
		Recurring: []core.Goal{},
	}
	for _, g := range goals {
		if g.IsOneTime() {
			groups.OneTime = append(groups.OneTime, g)
		} else {
			groups.Recurring = append(groups.Recurring, g)
		}
	}

	slices.SortStableFunc(groups.OneTime, func(a, b core.Goal) int {
		return dueKey(a).Compare(dueKey(b))
	})
	slices.SortStableFunc(groups.Recurring, func(a, b core.Goal) int {
		return int(a.PeriodType) - int(b.PeriodType)
	})
	return groups
}
