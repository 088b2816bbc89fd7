package params

import (
	"context"
	"testing"
)

func TestResolveParsesLaunchURL(t *testing.T) {
	store := NewStore("s1",
		"https://recorder.example.com/?candidate_id=c1&candidate_token=ct&recruiter_id=r1&recruiter_token=rt",
		NewMemoryCache())

	p := store.Resolve()
	if p.CandidateID != "c1" || p.CandidateToken != "ct" {
		t.Errorf("candidate params not resolved: %+v", p)
	}
	if p.RecruiterID != "r1" || p.RecruiterToken != "rt" {
		t.Errorf("recruiter params not resolved: %+v", p)
	}
}

func TestResolveMissingParamsAreEmpty(t *testing.T) {
	store := NewStore("s1", "https://recorder.example.com/?candidate_id=c1", NewMemoryCache())

	p := store.Resolve()
	if p.CandidateID != "c1" {
		t.Errorf("expected candidate_id c1, got %q", p.CandidateID)
	}
	if p.CandidateToken != "" || p.RecruiterID != "" || p.RecruiterToken != "" {
		t.Errorf("expected missing params to be empty, got %+v", p)
	}
}

func TestResolveNeverFailsOnGarbage(t *testing.T) {
	store := NewStore("s1", "://not a url", NewMemoryCache())

	p := store.Resolve()
	if p != (Parameters{}) {
		t.Errorf("expected zero parameters for garbage URL, got %+v", p)
	}
}

func TestResolvePrefersCache(t *testing.T) {
	cache := NewMemoryCache()
	cache.Put(context.Background(), "s1", Parameters{CandidateID: "cached"})

	// URL carries a different candidate_id; the cached value must win.
	store := NewStore("s1", "https://recorder.example.com/?candidate_id=fresh", cache)
	if p := store.Resolve(); p.CandidateID != "cached" {
		t.Errorf("expected cached candidate_id, got %q", p.CandidateID)
	}
}

func TestResolveWritesCacheOnce(t *testing.T) {
	cache := NewMemoryCache()
	store := NewStore("s1", "https://recorder.example.com/?candidate_id=c1", cache)

	first := store.Resolve()
	second := store.Resolve()
	if first != second {
		t.Errorf("Resolve is not idempotent: %+v vs %+v", first, second)
	}

	if p, ok := cache.Get(context.Background(), "s1"); !ok || p.CandidateID != "c1" {
		t.Errorf("expected parameters cached after resolve, got %+v ok=%v", p, ok)
	}
}

func TestStoresAreIsolatedBySession(t *testing.T) {
	cache := NewMemoryCache()
	a := NewStore("a", "https://x/?candidate_id=one", cache)
	b := NewStore("b", "https://x/?candidate_id=two", cache)

	if a.Resolve().CandidateID != "one" || b.Resolve().CandidateID != "two" {
		t.Error("sessions must not share resolved parameters")
	}
}
