package scan

import (
	"sync"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

type State int

const (
	StateIdle State = iota
	StateLocked
	StateUnavailable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocked:
		return "locked"
	case StateUnavailable:
		return "unavailable"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session is the station-session object: the ScanGate, the Result on
// display and a few counters.  Only the Controller mutates it; everyone
// else reads a Snapshot.
type Session struct {
	mu          sync.Mutex
	state       State
	current     types.Result
	unavailable types.Result
	changedAt   time.Time

	accepted uint64
	dropped  uint64
	ignored  uint64
}

// Snapshot is a point-in-time copy of a Session.
type Snapshot struct {
	State     State        `json:"state"`
	Gate      bool         `json:"gate"`
	Result    types.Result `json:"result"`
	ChangedAt time.Time    `json:"changed_at"`
	Accepted  uint64       `json:"accepted"`
	Dropped   uint64       `json:"dropped"`
	Ignored   uint64       `json:"ignored"`
}

func NewSession() *Session {
	return &Session{current: types.Cleared(), changedAt: time.Now().UTC()}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:     s.state,
		Gate:      s.state != StateIdle,
		Result:    s.current,
		ChangedAt: s.changedAt,
		Accepted:  s.accepted,
		Dropped:   s.dropped,
		Ignored:   s.ignored,
	}
}

// tryLock closes the gate if it is open.  The returned state is the one
// that decided the attempt.
func (s *Session) tryLock() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		if s.state == StateLocked {
			s.dropped++
		}
		return s.state, false
	}
	s.state = StateLocked
	s.changedAt = time.Now().UTC()
	s.accepted++
	return StateLocked, true
}

func (s *Session) noteIgnored() {
	s.mu.Lock()
	s.ignored++
	s.mu.Unlock()
}

func (s *Session) setResult(res types.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.current = res
}

// release reopens the gate after the display window and reports the state
// the session is left in.
func (s *Session) release() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateLocked:
		s.state = StateIdle
		s.current = types.Cleared()
		s.changedAt = time.Now().UTC()
	case StateUnavailable:
		s.current = s.unavailable
	}
	return s.state
}

// fail moves the session to Unavailable.  It returns false if the session
// was already unavailable or closed.
func (s *Session) fail(res types.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnavailable || s.state == StateClosed {
		return false
	}
	s.state = StateUnavailable
	s.current = res
	s.unavailable = res
	s.changedAt = time.Now().UTC()
	return true
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.changedAt = time.Now().UTC()
}
