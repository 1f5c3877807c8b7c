package conversation

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultInactivityWindow = 30 * time.Minute
	DefaultSweepInterval    = 5 * time.Minute
)

var (
	ErrNotFound = errors.New("no conversation state for respondent")
	// ErrExpired is reported when the entry existed but exceeded the
	// inactivity window; the entry is evicted before this is returned.
	ErrExpired = errors.New("conversation state expired")
)

// Store holds one mutable session per active respondent, in memory, for the
// lifetime of the process. A background sweep bounds memory growth from
// respondents who never return.
type Store struct {
	mu      sync.Mutex
	entries map[string]*State
	locks   map[string]*keyLock

	inactivityWindow time.Duration
	sweepInterval    time.Duration
	nowFn            func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore(inactivityWindow time.Duration, sweepInterval time.Duration) *Store {
	if inactivityWindow <= 0 {
		inactivityWindow = DefaultInactivityWindow
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	s := &Store{
		entries:          map[string]*State{},
		locks:            map[string]*keyLock{},
		inactivityWindow: inactivityWindow,
		sweepInterval:    sweepInterval,
		nowFn:            time.Now,
		done:             make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Stop ends the background sweep.
func (s *Store) Stop() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Acquire serializes Get-modify-Put sequences per respondent: two concurrent
// turns for the same respondent run one after the other, turns for different
// respondents never block each other. The expiration sweep uses the same
// locks.
func (s *Store) Acquire(respondentID string) (release func()) {
	s.mu.Lock()
	kl, ok := s.locks[respondentID]
	if !ok {
		kl = &keyLock{}
		s.locks[respondentID] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.locks, respondentID)
		}
		s.mu.Unlock()
	}
}

// Get returns the respondent's state. An expired entry is atomically evicted
// and reported as ErrExpired; callers never see stale state.
func (s *Store) Get(respondentID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.entries[respondentID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.isExpired(state) {
		delete(s.entries, respondentID)
		return nil, ErrExpired
	}
	return state, nil
}

// Put upserts the state and stamps the activity timestamp. It always
// replaces the whole entry, never merges.
func (s *Store) Put(respondentID string, state *State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.LastActivity = s.nowFn()
	s.entries[respondentID] = state
}

func (s *Store) Remove(respondentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, respondentID)
}

func (s *Store) IsExpired(state *State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isExpired(state)
}

func (s *Store) isExpired(state *State) bool {
	return s.nowFn().Sub(state.LastActivity) > s.inactivityWindow
}

// ActiveCount returns the number of live entries, expired ones included
// until the next sweep or access.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *Store) sweepExpired() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	removed := 0
	for _, key := range keys {
		release := s.Acquire(key)
		s.mu.Lock()
		state, ok := s.entries[key]
		if ok && s.isExpired(state) {
			delete(s.entries, key)
			removed++
		}
		s.mu.Unlock()
		release()
	}

	if removed > 0 {
		slog.Debug("evicted expired conversation states", slog.Int("count", removed))
	}
}
