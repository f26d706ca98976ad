package core

// GoalPeriodType is the recurrence of a goal. None marks a one-time goal.
type GoalPeriodType int

const (
	PeriodNone GoalPeriodType = iota
	PeriodDaily
	PeriodWeekly
	PeriodMonthly
	PeriodSemestral
	PeriodAnnual
)

var periodLabels = map[GoalPeriodType]string{
	PeriodNone:      "None",
	PeriodDaily:     "Daily",
	PeriodWeekly:    "Weekly",
	PeriodMonthly:   "Monthly",
	PeriodSemestral: "Semestral",
	PeriodAnnual:    "Annual",
}

func (p GoalPeriodType) String() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return "Unknown"
}

// Valid reports whether p is a known period code.
func (p GoalPeriodType) Valid() bool {
	_, ok := periodLabels[p]
	return ok
}

// IsRecurring reports whether goals of this period repeat.
func (p GoalPeriodType) IsRecurring() bool {
	return p != PeriodNone
}

// TransactionType separates income from expense. Zero means "not chosen".
type TransactionType int

const (
	TransactionIncome TransactionType = iota + 1
	TransactionExpense
)

func (t TransactionType) String() string {
	switch t {
	case TransactionIncome:
		return "Income"
	case TransactionExpense:
		return "Expense"
	default:
		return ""
	}
}

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// RecurrenceType uses the same codes as GoalPeriodType. None marks an unplanned transaction.
type RecurrenceType int

const (
	RecurrenceNone RecurrenceType = iota
	RecurrenceDaily
	RecurrenceWeekly
	RecurrenceMonthly
	RecurrenceSemestral
	RecurrenceAnnual
)

func (r RecurrenceType) String() string {
	return GoalPeriodType(r).String()
}

// Valid reports whether r is a known recurrence code.
func (r RecurrenceType) Valid() bool {
	return GoalPeriodType(r).Valid()
}

// EnvironmentType classifies an environment.
type EnvironmentType int

const (
	EnvironmentPersonal EnvironmentType = iota + 1
	EnvironmentFamily
	EnvironmentBusiness
)

func (e EnvironmentType) String() string {
	switch e {
	case EnvironmentPersonal:
		return "Personal"
	case EnvironmentFamily:
		return "Family"
	case EnvironmentBusiness:
		return "Business"
	default:
		return ""
	}
}

// FinancialLevel is the 0-7 control tier computed by the backend.
type FinancialLevel int

const (
	LevelNone FinancialLevel = iota
	LevelBeginner
	LevelLearning
	LevelIntermediate
	LevelAdvanced
	LevelExpert
	LevelMaster
	LevelFinancialController
)

// NeutralColor is used whenever a level or alert has no assigned color.
const NeutralColor = "#9E9E9E"

var levelInfo = map[FinancialLevel]struct{ label, color string }{
	LevelNone:                {"None", "#A52A2A"},
	LevelBeginner:            {"Beginner", "#E74C3C"},
	LevelLearning:            {"Learning", "#E67E22"},
	LevelIntermediate:        {"Intermediate", "#F1C40F"},
	LevelAdvanced:            {"Advanced", "#2ECC71"},
	LevelExpert:              {"Expert", "#3498DB"},
	LevelMaster:              {"Master", "#9B59B6"},
	LevelFinancialController: {"Financial Controller", "#FFD700"},
}

func (l FinancialLevel) String() string {
	if info, ok := levelInfo[l]; ok {
		return info.label
	}
	return "Unknown"
}

// Color is the badge color of the level, NeutralColor when out of range.
func (l FinancialLevel) Color() string {
	if info, ok := levelInfo[l]; ok {
		return info.color
	}
	return NeutralColor
}
