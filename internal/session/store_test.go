package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreate(t *testing.T) {
	st := NewStore()
	now := time.Now()

	s1, created := st.GetOrCreate("alice", now)
	require.True(t, created)
	assert.Equal(t, StateAnonymous, s1.State())
	assert.Equal(t, "alice", s1.UserID())

	s2, created := st.GetOrCreate("alice", now)
	assert.False(t, created)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, st.Len())
}

func TestStoreGetOrCreateConcurrent(t *testing.T) {
	st := NewStore()
	now := time.Now()

	const goroutines = 50
	results := make([]*Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = st.GetOrCreate("alice", now)
		}(i)
	}
	wg.Wait()

	// Every caller converged on one session; the registry holds exactly one
	// entry for the user.
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, st.Len())
}

func TestStoreInstallSupersedes(t *testing.T) {
	st := NewStore()
	now := time.Now()

	old, _ := st.GetOrCreate("alice", now)
	fresh, _ := st.GetOrCreate("login:xyz", now)

	prev := st.Install(fresh, "alice")
	require.Same(t, old, prev)
	assert.True(t, prev.superseded)
	assert.Equal(t, "alice", fresh.UserID())
	assert.Same(t, fresh, st.Get("alice"))
	assert.Nil(t, st.Get("login:xyz"))
	assert.Equal(t, 1, st.Len())
}

func TestStoreInstallNoPrior(t *testing.T) {
	st := NewStore()
	fresh, _ := st.GetOrCreate("login:xyz", time.Now())

	prev := st.Install(fresh, "alice")
	assert.Nil(t, prev)
	assert.Same(t, fresh, st.Get("alice"))
}

func TestStoreRemoveOnlyCurrent(t *testing.T) {
	st := NewStore()
	now := time.Now()

	old, _ := st.GetOrCreate("alice", now)
	fresh, _ := st.GetOrCreate("login:xyz", now)
	st.Install(fresh, "alice")

	// Removing the superseded session must not evict its replacement.
	st.Remove(old)
	assert.Same(t, fresh, st.Get("alice"))

	st.Remove(fresh)
	assert.Nil(t, st.Get("alice"))
}
