package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"regexp"
)

// The submission endpoint rejects bodies over 100 MiB with a dedicated
// error, so oversize payloads are refused before any network call.
const maxVideoBytes = 100 << 20

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubmitInterviewVideo uploads a raw webm recording with the candidate's
// email as multipart form data. This is the standalone submission variant;
// the interview flow itself submits transcripts via SubmitRoundAnswers.
func (c *Client) SubmitInterviewVideo(ctx context.Context, video []byte, email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(video) == 0 {
		return fmt.Errorf("%w: empty video payload", ErrValidation)
	}
	if len(video) > maxVideoBytes {
		return fmt.Errorf("%w: video exceeds 100 MiB limit", ErrValidation)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("email", email); err != nil {
		return fmt.Errorf("failed to write email field: %w", err)
	}
	fw, err := mw.CreateFormFile("video", "interview.webm")
	if err != nil {
		return fmt.Errorf("failed to create video field: %w", err)
	}
	if _, err := fw.Write(video); err != nil {
		return fmt.Errorf("failed to write video payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/interview-submission", &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	return classifyStatus(resp)
}
