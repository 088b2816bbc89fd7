package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Bhardwaj-Devesh/recorder/internal/params"
)

// Error classes for remote calls. Callers branch on these with errors.Is;
// the wrapped error carries the HTTP detail.
var (
	ErrAuth       = errors.New("authentication failed")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrServer     = errors.New("server error")
	ErrNetwork    = errors.New("network error")
)

// Client talks to the recruiter service. Session parameters come from the
// parameter store on every call rather than being copied at construction.
type Client struct {
	baseURL    string
	store      *params.Store
	httpClient *http.Client
}

func NewClient(baseURL string, store *params.Store, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Candidate is the profile returned by the candidate lookup.
type Candidate struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FetchCandidate looks up the candidate behind the session's token.
func (c *Client) FetchCandidate(ctx context.Context) (*Candidate, error) {
	p := c.store.Resolve()
	if p.CandidateToken == "" {
		return nil, fmt.Errorf("%w: no candidate token", ErrAuth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/candidates/me/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.CandidateToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var candidate Candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidate); err != nil {
		return nil, fmt.Errorf("failed to decode candidate: %w", err)
	}
	return &candidate, nil
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}

// FetchRoundQuestions loads the ordered question list for a round. A failure
// here blocks the whole recording flow; there is no retry or caching.
func (c *Client) FetchRoundQuestions(ctx context.Context, round string) ([]string, error) {
	p := c.store.Resolve()
	if p.RecruiterID == "" || p.CandidateID == "" {
		return nil, fmt.Errorf("%w: recruiter_id or candidate_id missing", ErrValidation)
	}

	q := url.Values{}
	q.Set("recruiter_id", p.RecruiterID)
	q.Set("candidate_id", p.CandidateID)
	q.Set("round", round)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/recruiter/public-round-questions/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var body questionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return body.Questions, nil
}

type submission struct {
	CandidateToken string   `json:"candidate_token"`
	Round          string   `json:"round"`
	Questions      []string `json:"questions"`
	Answers        []string `json:"answers"`
}

// SubmitRoundAnswers posts the completed transcript set. Exactly one
// submission per session; retries are manual and safe because the server
// keeps no partial state that this client manages.
func (c *Client) SubmitRoundAnswers(ctx context.Context, questions, answers []string, round string) error {
	p := c.store.Resolve()
	if p.CandidateToken == "" || p.RecruiterToken == "" {
		return fmt.Errorf("%w: candidate_token or recruiter_token missing", ErrValidation)
	}

	payload, err := json.Marshal(submission{
		CandidateToken: p.CandidateToken,
		Round:          round,
		Questions:      questions,
		Answers:        answers,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/recruiter/round-qa/", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+p.RecruiterToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	return classifyStatus(resp)
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrValidation, resp.StatusCode, strings.TrimSpace(string(body)))
	default:
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	}
}
