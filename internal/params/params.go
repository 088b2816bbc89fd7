package params

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"
)

// Parameters are the identifying tokens carried on an interview launch URL.
// Any of them may be empty; resolution never fails.
type Parameters struct {
	CandidateID    string
	CandidateToken string
	RecruiterID    string
	RecruiterToken string
}

// Cache stores resolved parameters for the lifetime of a browsing session.
type Cache interface {
	Get(ctx context.Context, sessionID string) (Parameters, bool)
	Put(ctx context.Context, sessionID string, p Parameters)
}

// Store resolves launch parameters once and serves the cached value after.
type Store struct {
	mu        sync.Mutex
	sessionID string
	launchURL string
	cache     Cache
	resolved  *Parameters
}

// NewStore creates a parameter store for one session. The launch URL is the
// full URL the interview page was opened with.
func NewStore(sessionID, launchURL string, cache Cache) *Store {
	return &Store{
		sessionID: sessionID,
		launchURL: launchURL,
		cache:     cache,
	}
}

// Resolve returns the session parameters. The first call consults the cache,
// falls back to parsing the launch URL and records the result; later calls
// return the same value. Missing parameters come back empty.
func (s *Store) Resolve() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved != nil {
		return *s.resolved
	}

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, s.sessionID); ok {
			s.resolved = &p
			return p
		}
	}

	p := parseLaunchURL(s.launchURL)
	if s.cache != nil {
		s.cache.Put(ctx, s.sessionID, p)
	}
	s.resolved = &p
	return p
}

func parseLaunchURL(launchURL string) Parameters {
	u, err := url.Parse(launchURL)
	if err != nil {
		log.Printf("Failed to parse launch URL: %v", err)
		return Parameters{}
	}
	q := u.Query()
	return Parameters{
		CandidateID:    q.Get("candidate_id"),
		CandidateToken: q.Get("candidate_token"),
		RecruiterID:    q.Get("recruiter_id"),
		RecruiterToken: q.Get("recruiter_token"),
	}
}
