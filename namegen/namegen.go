// Package namegen assigns flavor names to agents. Names come from an
// optional external source queried off the tick loop; a deterministic
// local table provides the immediate name at spawn and the fallback
// when the source fails.
package namegen

import (
	"context"
	"time"

	"github.com/pthm-cable/tank/config"
)

// Source produces a name for a newly spawned agent. Implementations may
// call remote services; the context carries the per-attempt deadline.
type Source interface {
	GenerateName(ctx context.Context, speciesName, personality string) (string, error)
}

// Result is a completed naming request. Fallback marks results that came
// from the local table after the source failed.
type Result struct {
	Key      uint64
	Name     string
	Fallback bool
}

// Service runs naming requests without ever blocking the caller. Requests
// beyond the queue cap are dropped; the spawn keeps its local name.
type Service struct {
	source   Source
	timeout  time.Duration
	inflight chan struct{}
	results  chan Result
}

// New creates a naming service. A nil source is valid; every Request is
// then refused and agents keep their local names.
func New(source Source) *Service {
	cfg := config.Cfg()
	queueCap := cfg.Naming.QueueCap
	if queueCap < 1 {
		queueCap = 1
	}
	return &Service{
		source:   source,
		timeout:  time.Duration(cfg.Naming.TimeoutMS) * time.Millisecond,
		inflight: make(chan struct{}, queueCap),
		results:  make(chan Result, queueCap),
	}
}

// Request starts a naming attempt for the given spawn key. It returns
// false when the request cannot be queued (no source, or the queue is
// full); the caller treats that as an immediate fallback.
func (s *Service) Request(key uint64, speciesName, personality string) bool {
	if s.source == nil {
		return false
	}
	select {
	case s.inflight <- struct{}{}:
	default:
		return false
	}

	go func() {
		defer func() { <-s.inflight }()

		name, err := s.attempt(speciesName, personality)
		if err != nil {
			name, err = s.attempt(speciesName, personality)
		}

		res := Result{Key: key, Name: name}
		if err != nil || name == "" {
			res.Name = Fallback(key)
			res.Fallback = true
		}
		select {
		case s.results <- res:
		default:
		}
	}()
	return true
}

func (s *Service) attempt(speciesName, personality string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.source.GenerateName(ctx, speciesName, personality)
}

// Drain appends all completed results to dst without blocking. The world
// calls this at the start of each tick.
func (s *Service) Drain(dst []Result) []Result {
	for {
		select {
		case r := <-s.results:
			dst = append(dst, r)
		default:
			return dst
		}
	}
}

var localNames = [...]string{
	"Bubbles", "Finley", "Pearl", "Gill", "Coral", "Marina", "Splash",
	"Nemo", "Dory", "Flash", "Shimmer", "Pebble", "Sunny", "Misty",
	"Echo", "Ripple", "Azure", "Comet", "Drift", "Ember", "Flicker",
	"Glimmer", "Harbor", "Indigo",
}

var localEpithets = [...]string{
	"Swift", "Brave", "Sly", "Grand", "Gentle", "Bold",
	"Curious", "Quiet", "Restless", "Lucky", "Elder", "Small",
}

// Fallback returns the deterministic local name for a spawn key. The
// same key always yields the same name.
func Fallback(key uint64) string {
	name := localNames[key%uint64(len(localNames))]
	if key%3 == 0 {
		return name + " the " + localEpithets[(key/3)%uint64(len(localEpithets))]
	}
	return name
}
