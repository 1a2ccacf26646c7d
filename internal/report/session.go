package report

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/railwear/internal/monitoring"
	"github.com/banshee-data/railwear/internal/timeutil"
)

var (
	// ErrNotFound is returned for unknown or expired report IDs.
	ErrNotFound = errors.New("report not found")
	// ErrBadID is returned when a report ID is not a UUID.
	ErrBadID = errors.New("malformed report id")
)

// Session is the drawing context handed to a chart renderer: the report
// plus the display settings it is drawn with.
type Session struct {
	Report      *Report
	RailSpacing float64
	Theme       string
}

// NewSession wraps rep with the builder's display settings.
func (b *Builder) NewSession(rep *Report) *Session {
	return &Session{
		Report:      rep,
		RailSpacing: b.cfg.GetRailSpacing(),
		Theme:       b.cfg.GetChartTheme(),
	}
}

type storeEntry struct {
	report *Report
	added  time.Time
}

// Store keeps the most recent reports so chart pages can be redrawn from
// the data the user is looking at. It holds at most capacity reports and
// drops the oldest first. Entries older than ttl are dropped as well; a
// zero ttl keeps entries until evicted by capacity.
type Store struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    timeutil.Clock
	order    []string
	entries  map[string]storeEntry
	logf     func(format string, v ...interface{})
}

// NewStore returns an empty Store. capacity < 1 is treated as 1.
func NewStore(capacity int, ttl time.Duration) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		ttl:      ttl,
		clock:    timeutil.RealClock{},
		entries:  make(map[string]storeEntry, capacity),
		logf:     monitoring.Component("sessions"),
	}
}

// WithClock replaces the clock used for expiry.
func (s *Store) WithClock(c timeutil.Clock) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
	return s
}

// Put stores rep under rep.ID, replacing any previous entry with that ID.
func (s *Store) Put(rep *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if _, ok := s.entries[rep.ID]; ok {
		s.removeLocked(rep.ID)
	}
	s.entries[rep.ID] = storeEntry{report: rep, added: s.clock.Now()}
	s.order = append(s.order, rep.ID)

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
		monitoring.Debugf("[sessions] evicted %s (capacity %d)", oldest, s.capacity)
	}
}

// Get returns the report stored under id.
func (s *Store) Get(id string) (*Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadID, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.report, nil
}

// Len returns the number of live reports.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.order)
}

func (s *Store) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	expired := 0
	for _, id := range s.order {
		if s.clock.Since(s.entries[id].added) < s.ttl {
			break
		}
		delete(s.entries, id)
		expired++
	}
	if expired > 0 {
		s.order = s.order[expired:]
		s.logf("expired %d report(s)", expired)
	}
}

func (s *Store) removeLocked(id string) {
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
