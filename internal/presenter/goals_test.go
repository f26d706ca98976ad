package presenter

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finview/internal/core"
)

func goalIDs(goals []core.Goal) []core.ID {
	ids := make([]core.ID, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}

func TestClassifyGoals(t *testing.T) {
	goals := []core.Goal{
		{ID: "1", PeriodType: core.PeriodAnnual, StartDate: core.NewDate(2025, 1, 1)},
		{ID: "2", PeriodType: core.PeriodNone, SingleDate: core.NewDate(2025, 12, 1)},
		{ID: "3", PeriodType: core.PeriodDaily},
		{ID: "4", PeriodType: core.PeriodNone, SingleDate: core.NewDate(2025, 11, 1)},
		{ID: "5", PeriodType: core.PeriodMonthly},
		{ID: "6", PeriodType: core.PeriodDaily},
		{ID: "7", PeriodType: core.PeriodNone},
	}

	groups := ClassifyGoals(goals)

	assert.Equal(t, []core.ID{"7", "4", "2"}, goalIDs(groups.OneTime), "missing date sorts first, then ascending")
	assert.Equal(t, []core.ID{"3", "6", "5", "1"}, goalIDs(groups.Recurring), "ascending period, ties keep input order")
	assert.Len(t, append(groups.OneTime, groups.Recurring...), len(goals))
}

func TestClassifyGoalsPartitionProperty(t *testing.T) {
	var goals []core.Goal
	for i := 0; i < 30; i++ {
		goals = append(goals, core.Goal{
			ID:         core.ID(strconv.Itoa(i)),
			PeriodType: core.GoalPeriodType(i % 6),
			SingleDate: core.NewDate(2025, 1+(i*7)%12, 1+(i*5)%28),
		})
	}

	groups := ClassifyGoals(goals)

	for _, g := range groups.OneTime {
		assert.Equal(t, core.PeriodNone, g.PeriodType)
	}
	for _, g := range groups.Recurring {
		assert.NotEqual(t, core.PeriodNone, g.PeriodType)
	}
	for i := 1; i < len(groups.OneTime); i++ {
		assert.LessOrEqual(t, groups.OneTime[i-1].SingleDate.Compare(groups.OneTime[i].SingleDate), 0)
	}
	for i := 1; i < len(groups.Recurring); i++ {
		assert.LessOrEqual(t, groups.Recurring[i-1].PeriodType, groups.Recurring[i].PeriodType)
	}
	assert.ElementsMatch(t, goalIDs(goals), goalIDs(append(groups.OneTime, groups.Recurring...)))
}

func TestClassifyGoalsEmpty(t *testing.T) {
	groups := ClassifyGoals(nil)
	require.NotNil(t, groups.OneTime)
	require.NotNil(t, groups.Recurring)
	assert.Empty(t, groups.OneTime)
	assert.Empty(t, groups.Recurring)
}

func TestClassifyGoalsDoesNotMutateInput(t *testing.T) {
	goals := []core.Goal{
		{ID: "1", PeriodType: core.PeriodNone, SingleDate: core.NewDate(2025, 12, 1)},
		{ID: "2", PeriodType: core.PeriodNone, SingleDate: core.NewDate(2025, 1, 1)},
	}
	ClassifyGoals(goals)
	assert.Equal(t, []core.ID{"1", "2"}, goalIDs(goals))
}
