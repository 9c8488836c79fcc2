package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness used by combat and critical effects.
// Matches take one at construction so tests can force every branch.
type Source interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// Intn returns a value in [0,n).
	Intn(n int) int
}

// NewRNG returns a seeded source. A zero seed picks one from the clock.
func NewRNG(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Scripted replays fixed draws in order. An exhausted float queue yields
// values just below 1 and an exhausted int queue yields 0.
type Scripted struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

// NewScripted builds a source that yields floats from Float64 calls and
// ints from Intn calls.
func NewScripted(floats []float64, ints []int) *Scripted {
	return &Scripted{
		floats: append([]float64(nil), floats...),
		ints:   append([]int(nil), ints...),
	}
}

// Never returns a source whose Float64 draws never trigger a critical.
func Never() Source { return constFloat(0.999999) }

// Always returns a source whose Float64 draws always trigger a critical.
func Always() Source { return constFloat(0) }

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0.999999
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *Scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 || n <= 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 {
		v = -v
	}
	return v % n
}

type constFloat float64

func (c constFloat) Float64() float64 { return float64(c) }
func (c constFloat) Intn(n int) int  { return 0 }
