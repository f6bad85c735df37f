package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jackyckma/baudagain/internal/door"
	"github.com/jackyckma/baudagain/internal/model"
)

// memDoorRepo is an in-memory stand-in for the Mongo repository.
type memDoorRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.DoorSession // userID:doorID -> snapshot
}

func newMemDoorRepo() *memDoorRepo {
	return &memDoorRepo{sessions: make(map[string]*model.DoorSession)}
}

func repoKey(userID, doorID string) string {
	return userID + ":" + doorID
}

func (r *memDoorRepo) FindActive(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.sessions[repoKey(userID, doorID)]
	if !ok || ds.Status != model.DoorActive {
		return nil, nil
	}
	cp := *ds
	return &cp, nil
}

func (r *memDoorRepo) Save(ctx context.Context, ds *model.DoorSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ds
	r.sessions[repoKey(ds.UserID, ds.DoorID)] = &cp
	return nil
}

func (r *memDoorRepo) MarkTimedOut(ctx context.Context, userID, doorID string) error {
	return r.setStatus(userID, doorID, model.DoorTimedOut)
}

func (r *memDoorRepo) MarkExited(ctx context.Context, userID, doorID string) error {
	return r.setStatus(userID, doorID, model.DoorExited)
}

func (r *memDoorRepo) setStatus(userID, doorID string, status model.DoorStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ds, ok := r.sessions[repoKey(userID, doorID)]; ok {
		ds.Status = status
	}
	return nil
}

func (r *memDoorRepo) status(userID, doorID string) model.DoorStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ds, ok := r.sessions[repoKey(userID, doorID)]; ok {
		return ds.Status
	}
	return ""
}

// mockDoorRepo is the testify mock used for failure-path expectations.
type mockDoorRepo struct {
	mock.Mock
}

func (m *mockDoorRepo) FindActive(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	args := m.Called(ctx, userID, doorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DoorSession), args.Error(1)
}

func (m *mockDoorRepo) Save(ctx context.Context, ds *model.DoorSession) error {
	args := m.Called(ctx, ds)
	return args.Error(0)
}

func (m *mockDoorRepo) MarkTimedOut(ctx context.Context, userID, doorID string) error {
	args := m.Called(ctx, userID, doorID)
	return args.Error(0)
}

func (m *mockDoorRepo) MarkExited(ctx context.Context, userID, doorID string) error {
	args := m.Called(ctx, userID, doorID)
	return args.Error(0)
}

// nopDoorCache misses on every read so the repository stays authoritative in
// tests.
type nopDoorCache struct{}

func (nopDoorCache) Set(ctx context.Context, ds *model.DoorSession) error { return nil }
func (nopDoorCache) Get(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	return nil, nil
}
func (nopDoorCache) Delete(ctx context.Context, userID, doorID string) error { return nil }

// memDoorCache is an in-memory stand-in for the Redis cache. Delete can be
// made to fail to exercise the degraded path where a closed session's
// snapshot lingers.
type memDoorCache struct {
	mu         sync.Mutex
	entries    map[string]*model.DoorSession
	failDelete error
}

func newMemDoorCache() *memDoorCache {
	return &memDoorCache{entries: make(map[string]*model.DoorSession)}
}

func (c *memDoorCache) Set(ctx context.Context, ds *model.DoorSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *ds
	c.entries[repoKey(ds.UserID, ds.DoorID)] = &cp
	return nil
}

func (c *memDoorCache) Get(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ds, ok := c.entries[repoKey(userID, doorID)]
	if !ok {
		return nil, nil
	}
	cp := *ds
	return &cp, nil
}

func (c *memDoorCache) Delete(ctx context.Context, userID, doorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDelete != nil {
		return c.failDelete
	}
	delete(c.entries, repoKey(userID, doorID))
	return nil
}

// fakeNotifier records which sessions were cut loose.
type fakeNotifier struct {
	mu           sync.Mutex
	unsubscribed []string
}

func (f *fakeNotifier) UnsubscribeAll(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, sessionID)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.unsubscribed)
}

// fakePresence satisfies cache.PresenceCache without Redis.
type fakePresence struct {
	mu      sync.Mutex
	touched map[string]time.Time
}

func newFakePresence() *fakePresence {
	return &fakePresence{touched: make(map[string]time.Time)}
}

func (f *fakePresence) Touch(ctx context.Context, handle string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[handle] = at
	return nil
}

func (f *fakePresence) Remove(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.touched, handle)
	return nil
}

func (f *fakePresence) ListOnline(ctx context.Context, notBefore time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for handle, at := range f.touched {
		if !at.Before(notBefore) {
			out = append(out, handle)
		}
	}
	return out, nil
}

// echoDoor accumulates inputs into its state blob; "quit" completes the
// game. Deterministic, so tests can assert exact resume state.
type echoDoor struct {
	id string
}

func (d *echoDoor) ID() string    { return d.id }
func (d *echoDoor) Title() string { return "Echo" }

func (d *echoDoor) Init(ctx context.Context) (door.Result, error) {
	return door.Result{State: []byte(""), Output: "echo ready"}, nil
}

func (d *echoDoor) Handle(ctx context.Context, state []byte, input string) (door.Result, error) {
	if input == "" {
		return door.Result{State: state, Output: "echo: " + string(state)}, nil
	}
	joined := string(state)
	if joined != "" {
		joined += ","
	}
	joined += input
	done := strings.EqualFold(input, "quit")
	return door.Result{State: []byte(joined), Output: "ack " + input, Done: done}, nil
}

// fixedClock is a hand-adjustable time source.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
