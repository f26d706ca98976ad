package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The finance API expects JSON numbers for amounts.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")

	ErrDescriptionRequired = errors.New("description is required")
	ErrValueNotPositive    = errors.New("value must be greater than zero")
	ErrPeriodTypeRequired  = errors.New("period type is required")
	ErrSingleDateRequired  = errors.New("date is required for one-time goals")
	ErrSingleDateInPast    = errors.New("date cannot be in the past")

	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrTypeRequired      = errors.New("transaction type is required")
	ErrDateRequired      = errors.New("transaction date is required")

	ErrNameRequired        = errors.New("name is required")
	ErrEmailRequired       = errors.New("email is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrOldPasswordRequired = errors.New("old password required")
	ErrNewPasswordRequired = errors.New("new password required")

	ErrEnvironmentNameRequired        = errors.New("environment name is required")
	ErrEnvironmentDescriptionRequired = errors.New("environment description is required")
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Goal is a savings goal as listed by the API.
type Goal struct {
	ID          ID              `json:"id"`
	GoalNumber  int             `json:"goalNumber,omitempty"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Status      *bool           `json:"status"`
	PeriodType  GoalPeriodType  `json:"periodType"`
	StartDate   Date            `json:"startDate"`
	SingleDate  Date            `json:"singleDate"`
}

// IsOneTime reports whether the goal is due on a single date.
func (g Goal) IsOneTime() bool {
	return g.PeriodType == PeriodNone
}

// StatusText renders the tri-state achievement flag.
func (g Goal) StatusText() string {
	switch {
	case g.Status == nil:
		return "Pending"
	case *g.Status:
		return "Completed"
	default:
		return "Pending or not achieved"
	}
}

// Form returns an edit buffer initialised from g.
func (g Goal) Form() GoalForm {
	p := g.PeriodType
	return GoalForm{
		ID:          g.ID,
		Description: g.Description,
		Value:       g.Value,
		PeriodType:  &p,
		StartDate:   g.StartDate,
		SingleDate:  g.SingleDate,
	}
}

// GoalForm is the create/edit buffer for a goal. A nil PeriodType means none was chosen.
type GoalForm struct {
	ID          ID
	Description string
	Value       decimal.Decimal
	PeriodType  *GoalPeriodType
	StartDate   Date
	SingleDate  Date
}

// Validate returns the first violated rule. today is compared by calendar day only.
func (f GoalForm) Validate(today time.Time) error {
	if blank(f.Description) {
		return ErrDescriptionRequired
	}
	if !f.Value.IsPositive() {
		return ErrValueNotPositive
	}
	if f.PeriodType == nil {
		return ErrPeriodTypeRequired
	}
	if *f.PeriodType == PeriodNone {
		if f.SingleDate.IsEmpty() {
			return ErrSingleDateRequired
		}
		if f.SingleDate.Compare(DateOf(today)) < 0 {
			return ErrSingleDateInPast
		}
	}
	return nil
}

// GoalRequest is the body of goal create and update calls.
type GoalRequest struct {
	ID          ID              `json:"id,omitempty"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	PeriodType  GoalPeriodType  `json:"periodType"`
	StartDate   Date            `json:"startDate"`
	SingleDate  Date            `json:"singleDate"`
}

// CreateRequest builds the create body. Recurring goals start today; one-time goals carry only their date.
func (f GoalForm) CreateRequest(today time.Time) GoalRequest {
	req := f.baseRequest()
	if req.PeriodType.IsRecurring() {
		req.StartDate = DateOf(today)
	} else {
		req.SingleDate = f.SingleDate
	}
	return req
}

// UpdateRequest keeps the start date only for recurring goals and the single date only for one-time goals.
func (f GoalForm) UpdateRequest() GoalRequest {
	req := f.baseRequest()
	req.ID = f.ID
	if req.PeriodType.IsRecurring() {
		req.StartDate = f.StartDate
	} else {
		req.SingleDate = f.SingleDate
	}
	return req
}

func (f GoalForm) baseRequest() GoalRequest {
	req := GoalRequest{
		Description: strings.TrimSpace(f.Description),
		Value:       f.Value,
	}
	if f.PeriodType != nil {
		req.PeriodType = *f.PeriodType
	}
	return req
}

// Transaction is an income or expense entry. RecurrenceType None marks it unplanned.
type Transaction struct {
	ID                ID              `json:"id"`
	Type              TransactionType `json:"type"`
	RecurrenceType    RecurrenceType  `json:"recurrenceType"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	TransactionDate   Date            `json:"transactionDate"`
	TransactionNumber int             `json:"transactionNumber,omitempty"`
}

// IsPlanned reports whether the transaction recurs.
func (t Transaction) IsPlanned() bool {
	return t.RecurrenceType != RecurrenceNone
}

// Kind returns "planned" or "unplanned".
func (t Transaction) Kind() TransactionKind {
	if t.IsPlanned() {
		return KindPlanned
	}
	return KindUnplanned
}

// Validate returns the first violated rule.
func (t Transaction) Validate() error {
	if blank(t.Description) {
		return ErrDescriptionRequired
	}
	if !t.Amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !t.Type.Valid() {
		return ErrTypeRequired
	}
	if t.TransactionDate.IsEmpty() {
		return ErrDateRequired
	}
	return nil
}

// TransactionKind names the planned/unplanned partition.
type TransactionKind string

const (
	KindPlanned   TransactionKind = "planned"
	KindUnplanned TransactionKind = "unplanned"
)

// Valid reports whether k names a partition.
func (k TransactionKind) Valid() bool {
	return k == KindPlanned || k == KindUnplanned
}

// Environment is a financial context owning goals and transactions.
type Environment struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        EnvironmentType `json:"type"`
}

// EnvironmentCheck carries both field flags so a form can mark every missing field.
type EnvironmentCheck struct {
	NameMissing        bool
	DescriptionMissing bool
}

// OK reports whether no field is missing.
func (c EnvironmentCheck) OK() bool {
	return !c.NameMissing && !c.DescriptionMissing
}

// Err returns the reported error. The name error takes precedence.
func (c EnvironmentCheck) Err() error {
	switch {
	case c.NameMissing:
		return ErrEnvironmentNameRequired
	case c.DescriptionMissing:
		return ErrEnvironmentDescriptionRequired
	default:
		return nil
	}
}

// Check evaluates name and description together.
func (e Environment) Check() EnvironmentCheck {
	return EnvironmentCheck{
		NameMissing:        blank(e.Name),
		DescriptionMissing: blank(e.Description),
	}
}

// Validate returns the reported error of Check.
func (e Environment) Validate() error {
	return e.Check().Err()
}

// UserProfile is the displayed account data.
type UserProfile struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserUpdate is the profile edit buffer including the optional password pair.
type UserUpdate struct {
	ID          ID
	Name        string
	Email       string
	OldPassword string
	NewPassword string
}

// Validate returns the first violated rule. The password pair is both-or-neither.
func (u UserUpdate) Validate() error {
	if blank(u.Name) {
		return ErrNameRequired
	}
	if blank(u.Email) {
		return ErrEmailRequired
	}
	if !blank(u.NewPassword) && blank(u.OldPassword) {
		return ErrOldPasswordRequired
	}
	if !blank(u.OldPassword) && blank(u.NewPassword) {
		return ErrNewPasswordRequired
	}
	return nil
}

// UserUpdateRequest is the body of the profile update call.
type UserUpdateRequest struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword,omitempty"`
	OldPassword string `json:"oldPassword,omitempty"`
}

// Request builds the update body. Passwords are sent only when both are filled.
func (u UserUpdate) Request() UserUpdateRequest {
	req := UserUpdateRequest{
		ID:    u.ID,
		Name:  strings.TrimSpace(u.Name),
		Email: strings.TrimSpace(u.Email),
	}
	if !blank(u.OldPassword) && !blank(u.NewPassword) {
		req.OldPassword = u.OldPassword
		req.NewPassword = u.NewPassword
	}
	return req
}

// Profile returns the profile as displayed after a successful update.
func (u UserUpdate) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: strings.TrimSpace(u.Name), Email: strings.TrimSpace(u.Email)}
}

// Credentials is the login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if blank(c.Email) {
		return ErrEmailRequired
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// Registration is the sign-up body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r Registration) Validate() error {
	if blank(r.Name) {
		return ErrNameRequired
	}
	return Credentials{Email: r.Email, Password: r.Password}.Validate()
}

// LoginResult is returned by the login call.
type LoginResult struct {
	Token string `json:"token"`
}
