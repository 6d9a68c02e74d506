package application

import (
	"context"
	"sort"
	"sync"
	"time"
)

type userRepoStub struct {
	mu        sync.Mutex
	users     map[string]User
	createErr error
	getErr    error
}

func newUserRepoStub(users ...User) *userRepoStub {
	r := &userRepoStub{users: make(map[string]User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *userRepoStub) CreateUser(ctx context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.users[user.ID] = user
	return nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return User{}, r.getErr
	}
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

type prefRepoStub struct {
	mu        sync.Mutex
	prefs     []Preference
	appendErr error
	latestErr error
}

func (r *prefRepoStub) AppendPreference(ctx context.Context, pref Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.prefs = append(r.prefs, pref)
	return nil
}

func (r *prefRepoStub) LatestPreference(ctx context.Context, userID string) (Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latestErr != nil {
		return Preference{}, r.latestErr
	}
	var (
		best  Preference
		found bool
	)
	for _, p := range r.prefs {
		if p.UserID != userID {
			continue
		}
		if !found || !p.DateTime.Before(best.DateTime) {
			best, found = p, true
		}
	}
	if !found {
		return Preference{}, ErrNotFound
	}
	return best, nil
}

type logRepoStub struct {
	mu        sync.Mutex
	entries   []LogEntry
	appendErr error
	listErr   error
}

func (r *logRepoStub) AppendLogEntry(ctx context.Context, entry LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *logRepoStub) ListLogEntries(ctx context.Context, userID string, from, to time.Time) ([]LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []LogEntry
	for _, e := range r.entries {
		if e.UserID == userID && !e.DateTime.Before(from) && !e.DateTime.After(to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (r *logRepoStub) LatestLogEntry(ctx context.Context, userID string) (LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		best  LogEntry
		found bool
	)
	for _, e := range r.entries {
		if e.UserID == userID && (!found || !e.DateTime.Before(best.DateTime)) {
			best, found = e, true
		}
	}
	if !found {
		return LogEntry{}, ErrNotFound
	}
	return best, nil
}

func (r *logRepoStub) CountLogEntries(ctx context.Context, userID string, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.UserID == userID && !e.DateTime.Before(from) && e.DateTime.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *logRepoStub) DeleteLogEntries(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var removed int64
	for _, e := range r.entries {
		if e.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}

func (r *logRepoStub) snapshot() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

type oracleStub struct {
	mu       sync.Mutex
	respond  func(ctx context.Context, req OracleRequest) ([]byte, error)
	requests []OracleRequest
}

func staticOracle(raw string) *oracleStub {
	return &oracleStub{respond: func(context.Context, OracleRequest) ([]byte, error) {
		return []byte(raw), nil
	}}
}

func (o *oracleStub) Complete(ctx context.Context, req OracleRequest) ([]byte, error) {
	o.mu.Lock()
	o.requests = append(o.requests, req)
	respond := o.respond
	o.mu.Unlock()
	return respond(ctx, req)
}

func (o *oracleStub) calls() []OracleRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]OracleRequest, len(o.requests))
	copy(out, o.requests)
	return out
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testNow = time.Date(2024, time.March, 10, 14, 30, 15, 0, time.UTC)

type decisionFixture struct {
	clock    *fixedClock
	users    *userRepoStub
	prefs    *prefRepoStub
	logs     *logRepoStub
	log      *RequestLog
	oracle   *oracleStub
	service  *DecisionService
	assemble *ContextAssembler
}

func newDecisionFixture(oracle *oracleStub) *decisionFixture {
	clock := &fixedClock{now: testNow}
	users := newUserRepoStub(User{ID: "u1", Name: "Tim", Surname: "Apple", Joined: testNow.Add(-72 * time.Hour)})
	prefs := &prefRepoStub{prefs: []Preference{{
		UserID:               "u1",
		DateTime:             testNow.Add(-72 * time.Hour),
		Text:                 "The user wants to restrict their usage of the following apps: instagram, tiktok",
		PreferredPersonality: "chill",
		SelectedApps:         []string{"instagram", "tiktok"},
	}}}
	logs := &logRepoStub{}
	log := NewRequestLog(logs, clock.Now)
	assembler := NewContextAssembler(users, prefs, log, clock.Now, 24)
	return &decisionFixture{
		clock:    clock,
		users:    users,
		prefs:    prefs,
		logs:     logs,
		log:      log,
		oracle:   oracle,
		service:  NewDecisionService(assembler, oracle, log, time.Second),
		assemble: assembler,
	}
}
