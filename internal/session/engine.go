package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/cache"
	"github.com/jackyckma/baudagain/internal/door"
	"github.com/jackyckma/baudagain/internal/model"
	"github.com/jackyckma/baudagain/internal/repository"
)

// EnterResult is the outcome of entering a door.
type EnterResult struct {
	DoorID  string `json:"doorId"`
	Output  string `json:"output"`
	Resumed bool   `json:"resumed"`
	// TimedOut means a previous session for this door had expired and was
	// discarded; the door was entered fresh.
	TimedOut bool `json:"timedOut"`
}

// InputResult is the outcome of one door input.
type InputResult struct {
	Output string `json:"output"`
	Done   bool   `json:"done"`
	// TimedOut means the door session expired before this input; the input
	// was not processed and the session was discarded.
	TimedOut bool `json:"timedOut"`
}

// DoorEngine manages the sub-lifecycle of door sessions: entry, resumption,
// input, persistence and exit. Timeouts are evaluated lazily from stored
// timestamps at the moment of the next access; no background timer runs.
//
// The engine holds no state of its own between requests; the repository is
// the durable owner of door sessions, with the Redis cache as a read-through
// front. All methods for a given user are expected to be called under the
// Manager's per-user serialization.
type DoorEngine struct {
	repo    repository.DoorSessionRepo
	cache   cache.DoorCache
	doors   *door.Registry
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewDoorEngine(repo repository.DoorSessionRepo, doorCache cache.DoorCache, doors *door.Registry, timeout time.Duration, logger *zap.Logger) *DoorEngine {
	return &DoorEngine{
		repo:    repo,
		cache:   doorCache,
		doors:   doors,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Enter opens doorID for userID: resumes an active, non-expired session with
// its persisted state, discards an expired one, or starts fresh.
func (e *DoorEngine) Enter(ctx context.Context, userID, doorID string) (*EnterResult, error) {
	d, ok := e.doors.Get(doorID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDoor, doorID)
	}

	ds, err := e.loadActive(ctx, userID, doorID)
	if err != nil {
		return nil, repoErr(err)
	}

	now := e.now()
	timedOut := false

	if ds != nil {
		if e.expired(ds, now) {
			if err := e.discard(ctx, ds); err != nil {
				return nil, repoErr(err)
			}
			timedOut = true
		} else {
			// Resume: state blob comes back exactly as last persisted,
			// only the input clock moves.
			ds.LastInputAt = now
			if err := e.persist(ctx, ds); err != nil {
				return nil, repoErr(err)
			}
			res, err := d.Handle(ctx, ds.StateBlob, "")
			if err != nil {
				return nil, fmt.Errorf("door %s render: %w", doorID, err)
			}
			return &EnterResult{DoorID: doorID, Output: res.Output, Resumed: true}, nil
		}
	}

	res, err := d.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("door %s init: %w", doorID, err)
	}
	fresh := &model.DoorSession{
		UserID:      userID,
		DoorID:      doorID,
		StateBlob:   res.State,
		EnteredAt:   now,
		LastInputAt: now,
		Status:      model.DoorActive,
	}
	if err := e.persist(ctx, fresh); err != nil {
		return nil, repoErr(err)
	}

	return &EnterResult{DoorID: doorID, Output: res.Output, TimedOut: timedOut}, nil
}

// ProcessInput applies one input to the user's active door session. The
// timeout check runs first: an expired session is discarded and reported,
// and the input is not processed. Empty input is a keep-alive tick: it
// refreshes LastInputAt and re-renders, but the door state does not change.
func (e *DoorEngine) ProcessInput(ctx context.Context, userID, doorID, input string) (*InputResult, error) {
	d, ok := e.doors.Get(doorID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDoor, doorID)
	}

	ds, err := e.loadActive(ctx, userID, doorID)
	if err != nil {
		return nil, repoErr(err)
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: no active session for door %s", ErrInvalidTransition, doorID)
	}

	now := e.now()
	if e.expired(ds, now) {
		if err := e.discard(ctx, ds); err != nil {
			return nil, repoErr(err)
		}
		return &InputResult{TimedOut: true}, nil
	}

	if input == "" {
		ds.LastInputAt = now
		if err := e.persist(ctx, ds); err != nil {
			return nil, repoErr(err)
		}
		res, err := d.Handle(ctx, ds.StateBlob, "")
		if err != nil {
			return nil, fmt.Errorf("door %s render: %w", doorID, err)
		}
		return &InputResult{Output: res.Output}, nil
	}

	res, err := d.Handle(ctx, ds.StateBlob, input)
	if err != nil {
		return nil, fmt.Errorf("door %s input: %w", doorID, err)
	}

	// Persist before reporting success: a failed save must not leave the
	// caller believing the state advanced.
	updated := *ds
	updated.StateBlob = res.State
	updated.LastInputAt = now
	if err := e.persist(ctx, &updated); err != nil {
		return nil, repoErr(err)
	}

	if res.Done {
		if err := e.close(ctx, &updated, model.DoorExited); err != nil {
			return nil, repoErr(err)
		}
	}

	return &InputResult{Output: res.Output, Done: res.Done}, nil
}

// Exit persists the final snapshot and marks the session exited. Exiting
// with no active session is a no-op.
func (e *DoorEngine) Exit(ctx context.Context, userID, doorID string) error {
	ds, err := e.loadActive(ctx, userID, doorID)
	if err != nil {
		return repoErr(err)
	}
	if ds == nil {
		return nil
	}
	if err := e.close(ctx, ds, model.DoorExited); err != nil {
		return repoErr(err)
	}
	return nil
}

func (e *DoorEngine) expired(ds *model.DoorSession, now time.Time) bool {
	return now.Sub(ds.LastInputAt) > e.timeout
}

// loadActive checks the cache first and falls back to the repository. Cache
// failures degrade to a repository read. Only active snapshots are trusted
// from the cache; a closed entry that outlived its delete defers to the
// repository.
func (e *DoorEngine) loadActive(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	if ds, err := e.cache.Get(ctx, userID, doorID); err == nil && ds != nil && ds.Status == model.DoorActive {
		return ds, nil
	} else if err != nil {
		e.logger.Warn("door cache read failed", zap.String("doorId", doorID), zap.Error(err))
	}
	return e.repo.FindActive(ctx, userID, doorID)
}

// persist writes to the repository (authoritative) and refreshes the cache
// (best effort).
func (e *DoorEngine) persist(ctx context.Context, ds *model.DoorSession) error {
	if err := e.repo.Save(ctx, ds); err != nil {
		return err
	}
	if err := e.cache.Set(ctx, ds); err != nil {
		e.logger.Warn("door cache write failed", zap.String("doorId", ds.DoorID), zap.Error(err))
	}
	return nil
}

func (e *DoorEngine) discard(ctx context.Context, ds *model.DoorSession) error {
	return e.close(ctx, ds, model.DoorTimedOut)
}

func (e *DoorEngine) close(ctx context.Context, ds *model.DoorSession, status model.DoorStatus) error {
	var err error
	switch status {
	case model.DoorTimedOut:
		err = e.repo.MarkTimedOut(ctx, ds.UserID, ds.DoorID)
	default:
		err = e.repo.MarkExited(ctx, ds.UserID, ds.DoorID)
	}
	if err != nil {
		return err
	}
	ds.Status = status
	if err := e.cache.Delete(ctx, ds.UserID, ds.DoorID); err != nil {
		e.logger.Warn("door cache delete failed", zap.String("doorId", ds.DoorID), zap.Error(err))
		// Leaving the stale active snapshot behind would let the closed game
		// resume from the cache. Overwrite it with the closed status so reads
		// reject it.
		if err := e.cache.Set(ctx, ds); err != nil {
			e.logger.Warn("door cache tombstone failed", zap.String("doorId", ds.DoorID), zap.Error(err))
		}
	}
	return nil
}

// SetClock overrides the engine's time source. Test hook.
func (e *DoorEngine) SetClock(now func() time.Time) {
	e.now = now
}
