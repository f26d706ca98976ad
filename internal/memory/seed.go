package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finview/internal/core"
)

// Seed is the JSON shape of data/seed.json.
type Seed struct {
	Users []SeedUser `json:"users"`
}

type SeedUser struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	CreatedAt    core.Date         `json:"createdAt"`
	Environments []SeedEnvironment `json:"environments"`
}

type SeedEnvironment struct {
	core.Environment
	Goals        []SeedGoal         `json:"goals"`
	Transactions []core.Transaction `json:"transactions"`
}

// SeedGoal carries how many times a recurring goal was achieved.
type SeedGoal struct {
	core.Goal
	Achievements int `json:"achievements"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return s, nil
}

// NewFromDir seeds a store from dir/seed.json, falling back to the demo seed.
func NewFromDir(dir string, opts ...Option) *Store {
	s, err := LoadSeed(filepath.Join(dir, "seed.json"))
	if err != nil || len(s.Users) == 0 {
		s = DemoSeed(time.Now())
	}
	st := New(opts...)
	st.Load(s)
	return st
}

// DemoSeed returns one demo user with a personal environment dated around now.
func DemoSeed(now time.Time) Seed {
	today := core.DateOf(now)
	day := func(offset int) core.Date {
		return core.Date{Time: today.AddDate(0, 0, offset)}
	}
	yes := true
	return Seed{Users: []SeedUser{{
		Name:      "Demo",
		Email:     "demo@finview.local",
		Password:  "demo",
		CreatedAt: day(-180),
		Environments: []SeedEnvironment{{
			Environment: core.Environment{Name: "Personal", Description: "Personal budget", Type: core.EnvironmentPersonal},
			Goals: []SeedGoal{
				{Goal: core.Goal{Description: "Emergency fund", Value: dec("5000"), PeriodType: core.PeriodNone, SingleDate: day(90)}},
				{Goal: core.Goal{Description: "New laptop", Value: dec("3500"), PeriodType: core.PeriodNone, SingleDate: day(-10), Status: &yes}},
				{Goal: core.Goal{Description: "Save weekly", Value: dec("100"), PeriodType: core.PeriodWeekly, StartDate: day(-120)}, Achievements: 12},
				{Goal: core.Goal{Description: "Invest monthly", Value: dec("500"), PeriodType: core.PeriodMonthly, StartDate: day(-150)}, Achievements: 4},
				{Goal: core.Goal{Description: "No delivery today", Value: dec("30"), PeriodType: core.PeriodDaily, StartDate: day(-30)}, Achievements: 21},
			},
			Transactions: []core.Transaction{
				{Type: core.TransactionIncome, RecurrenceType: core.RecurrenceMonthly, Description: "Salary", Amount: dec("6500"), TransactionDate: day(-150)},
				{Type: core.TransactionExpense, RecurrenceType: core.RecurrenceMonthly, Description: "Rent", Amount: dec("1800"), TransactionDate: day(-145)},
				{Type: core.TransactionExpense, RecurrenceType: core.RecurrenceWeekly, Description: "Groceries", Amount: dec("350"), TransactionDate: day(-60)},
				{Type: core.TransactionExpense, Description: "Car repair", Amount: dec("1200"), TransactionDate: day(-20)},
				{Type: core.TransactionIncome, Description: "Freelance", Amount: dec("900"), TransactionDate: day(-5)},
			},
		}},
	}}}
}
