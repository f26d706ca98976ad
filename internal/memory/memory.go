// Package memory is an in-process finance backend used for demos and tests.
// It keeps per-user environments and reads the caller from the session.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finview/internal/api"
	"finview/internal/core"
	"finview/internal/ports"
	"finview/internal/session"
)

// Ensure interface conformance
var (
	_ ports.GoalStore        = (*Store)(nil)
	_ ports.TransactionStore = (*Store)(nil)
	_ ports.EnvironmentStore = (*Store)(nil)
	_ ports.DashboardReader  = (*Store)(nil)
	_ ports.BalanceEditor    = (*Store)(nil)
	_ ports.RankingReader    = (*Store)(nil)
	_ ports.UserStore        = (*Store)(nil)
	_ ports.Authenticator    = (*Store)(nil)
)

type user struct {
	id        core.ID
	name      string
	email     string
	password  string
	createdAt core.Date
}

type goal struct {
	core.Goal
	achievements int
}

type environment struct {
	core.Environment
	owner        core.ID
	seq          int64
	goals        []goal
	transactions []core.Transaction
	adjustment   decimal.Decimal
	balance      decimal.Decimal
}

type Store struct {
	mu      sync.Mutex
	session *session.Session
	now     func() time.Time
	nextID  int64
	users   map[core.ID]*user
	tokens  map[string]core.ID
	envs    map[core.ID]*environment
}

// Option configures a Store.
type Option func(*Store)

// WithSession binds the store to the session whose token and environment select the data.
func WithSession(s *session.Session) Option {
	return func(st *Store) { st.session = s }
}

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		users:  make(map[core.ID]*user),
		tokens: make(map[string]core.ID),
		envs:   make(map[core.ID]*environment),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.session == nil {
		s.session = session.New(nil, "")
	}
	return s
}

// Load adds the seeded users, environments, goals and transactions.
func (s *Store) Load(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, su := range seed.Users {
		u := &user{
			id:        s.id(),
			name:      su.Name,
			email:     strings.ToLower(strings.TrimSpace(su.Email)),
			password:  su.Password,
			createdAt: su.CreatedAt,
		}
		s.users[u.id] = u
		for _, se := range su.Environments {
			env := &environment{Environment: se.Environment, owner: u.id, seq: s.nextID + 1}
			env.ID = s.id()
			for _, sg := range se.Goals {
				g := goal{Goal: sg.Goal, achievements: sg.Achievements}
				g.ID = s.id()
				env.goals = append(env.goals, g)
			}
			for _, tx := range se.Transactions {
				tx.ID = s.id()
				env.transactions = append(env.transactions, tx)
			}
			env.balance = env.computedBalance(s.today())
			s.envs[env.ID] = env
		}
	}
}

// id hands out numeric ids in string form, as the API does.
func (s *Store) id() core.ID {
	s.nextID++
	return core.ID(strconv.FormatInt(s.nextID, 10))
}

func (s *Store) today() core.Date {
	return core.DateOf(s.now())
}

func fail(status int, msg string) error {
	return &api.Error{Method: "memory", Path: "", Status: status, Message: msg}
}

// currentUser must be called with the lock held.
func (s *Store) currentUser() (*user, error) {
	id, ok := s.tokens[s.session.Token()]
	if !ok {
		return nil, fail(http.StatusUnauthorized, "Unauthorized")
	}
	return s.users[id], nil
}

// currentEnv must be called with the lock held.
func (s *Store) currentEnv() (*environment, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	id := core.ID(s.session.EnvironmentID())
	if id.IsZero() {
		return nil, fail(http.StatusBadRequest, "No environment selected")
	}
	env, ok := s.envs[id]
	if !ok || env.owner != u.id {
		return nil, fail(http.StatusNotFound, "Environment not found")
	}
	return env, nil
}

// Auth

func (s *Store) Login(_ context.Context, creds core.Credentials) (core.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	for _, u := range s.users {
		if u.email == email && u.password == creds.Password {
			token := uuid.NewString()
			s.tokens[token] = u.id
			return core.LoginResult{Token: token}, nil
		}
	}
	return core.LoginResult{}, fail(http.StatusUnauthorized, "Invalid email or password")
}

func (s *Store) Register(_ context.Context, reg core.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	for _, u := range s.users {
		if u.email == email {
			return fail(http.StatusConflict, "Email already registered")
		}
	}
	u := &user{id: s.id(), name: strings.TrimSpace(reg.Name), email: email, password: reg.Password, createdAt: s.today()}
	s.users[u.id] = u
	return nil
}

// User

func (s *Store) GetUser(_ context.Context) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUser()
	if err != nil {
		return core.UserProfile{}, err
	}
	return core.UserProfile{ID: u.id, Name: u.name, Email: u.email}, nil
}

func (s *Store) UpdateUser(_ context.Context, req core.UserUpdateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUser()
	if err != nil {
		return err
	}
	if req.NewPassword != "" {
		if req.OldPassword != u.password {
			return fail(http.StatusBadRequest, "Old password is incorrect")
		}
		u.password = req.NewPassword
	}
	u.name = req.Name
	u.email = strings.ToLower(req.Email)
	return nil
}

// Environments

func (s *Store) ListEnvironments(_ context.Context) ([]core.Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	owned := []*environment{}
	for _, env := range s.envs {
		if env.owner == u.id {
			owned = append(owned, env)
		}
	}
	slices.SortFunc(owned, func(a, b *environment) int { return cmp.Compare(a.seq, b.seq) })
	out := make([]core.Environment, 0, len(owned))
	for _, env := range owned {
		out = append(out, env.Environment)
	}
	return out, nil
}

func (s *Store) CreateEnvironment(_ context.Context, e core.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUser()
	if err != nil {
		return err
	}
	env := &environment{Environment: e, owner: u.id, seq: s.nextID + 1}
	env.ID = s.id()
	s.envs[env.ID] = env
	return nil
}

func (s *Store) ownedEnv(id core.ID) (*environment, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	env, ok := s.envs[id]
	if !ok || env.owner != u.id {
		return nil, fail(http.StatusNotFound, "Environment not found")
	}
	return env, nil
}

func (s *Store) UpdateEnvironment(_ context.Context, e core.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.ownedEnv(e.ID)
	if err != nil {
		return err
	}
	env.Name, env.Description, env.Type = e.Name, e.Description, e.Type
	return nil
}

func (s *Store) DeleteEnvironment(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedEnv(id); err != nil {
		return err
	}
	delete(s.envs, id)
	return nil
}

func (s *Store) SetActiveEnvironment(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.ownedEnv(id)
	return err
}

// Goals

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return nil, err
	}
	out := make([]core.Goal, 0, len(env.goals))
	for i, g := range env.goals {
		v := g.Goal
		v.GoalNumber = i + 1
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, req core.GoalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	env.goals = append(env.goals, goal{Goal: core.Goal{
		ID:          s.id(),
		Description: req.Description,
		Value:       req.Value,
		PeriodType:  req.PeriodType,
		StartDate:   req.StartDate,
		SingleDate:  req.SingleDate,
	}})
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, req core.GoalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(env.goals, func(g goal) bool { return g.ID == req.ID })
	if i < 0 {
		return fail(http.StatusNotFound, "Goal not found")
	}
	g := &env.goals[i]
	g.Description, g.Value, g.PeriodType = req.Description, req.Value, req.PeriodType
	g.StartDate, g.SingleDate = req.StartDate, req.SingleDate
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(env.goals, func(g goal) bool { return g.ID == id })
	if i < 0 {
		return fail(http.StatusNotFound, "Goal not found")
	}
	env.goals = slices.Delete(env.goals, i, i+1)
	return nil
}

// Transactions

func (s *Store) ListTransactions(_ context.Context, kind core.TransactionKind) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return nil, err
	}
	out := []core.Transaction{}
	for _, tx := range env.transactions {
		if tx.Kind() == kind {
			out = append(out, tx)
		}
	}
	return out, nil
}

func checkKind(kind core.TransactionKind, tx core.Transaction) error {
	if !kind.Valid() {
		return fail(http.StatusNotFound, fmt.Sprintf("Unknown transaction kind %q", kind))
	}
	if tx.Kind() != kind {
		return fail(http.StatusBadRequest, "Recurrence does not match the transaction kind")
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, kind core.TransactionKind, tx core.Transaction) error {
	if err := checkKind(kind, tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	tx.ID = s.id()
	tx.TransactionNumber = 0
	env.transactions = append(env.transactions, tx)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, kind core.TransactionKind, tx core.Transaction) error {
	if err := checkKind(kind, tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(env.transactions, func(t core.Transaction) bool { return t.ID == tx.ID })
	if i < 0 {
		return fail(http.StatusNotFound, "Transaction not found")
	}
	tx.TransactionNumber = 0
	env.transactions[i] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(env.transactions, func(t core.Transaction) bool { return t.ID == id })
	if i < 0 {
		return fail(http.StatusNotFound, "Transaction not found")
	}
	env.transactions = slices.Delete(env.transactions, i, i+1)
	return nil
}
