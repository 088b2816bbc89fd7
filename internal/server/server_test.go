package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bhardwaj-Devesh/recorder/internal/config"
	"github.com/gorilla/websocket"
)

func testConfig(t *testing.T, apiBaseURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.API.BaseURL = apiBaseURL
	cfg.API.Round = "pre-screening"
	cfg.API.TimeoutSeconds = 2
	cfg.Interview.CountdownSeconds = 3
	cfg.Interview.AnswerSeconds = 5
	cfg.Recognition.Provider = "unsupported"
	return cfg
}

func fakeRecruiterAPI(t *testing.T, questions []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/candidates/me"):
			json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": "Test Candidate", "email": "test@example.com"})
		case strings.HasPrefix(r.URL.Path, "/recruiter/public-round-questions"):
			json.NewEncoder(w).Encode(map[string]any{"questions": questions})
		default:
			http.NotFound(w, r)
		}
	}))
}

func dialWS(t *testing.T, gateway *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(gateway.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial gateway: %v", err)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame serverFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return frame
}

func TestConnectDeliversSessionSnapshot(t *testing.T) {
	apiServer := fakeRecruiterAPI(t, []string{"Tell me about yourself", "Why this role?"})
	defer apiServer.Close()

	srv, err := New(testConfig(t, apiServer.URL))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	gateway := httptest.NewServer(srv.Handler())
	defer gateway.Close()

	conn := dialWS(t, gateway)
	defer conn.Close()

	launch := "https://app.example.com/interview?candidate_id=7&candidate_token=ctok&recruiter_id=3&recruiter_token=rtok"
	if err := conn.WriteJSON(helloFrame{Type: "hello", LaunchURL: launch}); err != nil {
		t.Fatalf("failed to send hello: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "session" {
		t.Fatalf("expected session frame, got %q (message: %s)", frame.Type, frame.Message)
	}
	if frame.Session == nil {
		t.Fatal("session frame missing snapshot")
	}
	if len(frame.Session.Questions) != 2 {
		t.Errorf("expected 2 questions, got %d", len(frame.Session.Questions))
	}
	if frame.Session.Phase != "idle" {
		t.Errorf("expected idle phase, got %q", frame.Session.Phase)
	}
}

func TestQuestionFetchFailureSendsErrorFrame(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer apiServer.Close()

	srv, err := New(testConfig(t, apiServer.URL))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	gateway := httptest.NewServer(srv.Handler())
	defer gateway.Close()

	conn := dialWS(t, gateway)
	defer conn.Close()

	launch := "https://app.example.com/interview?candidate_id=7&candidate_token=ctok&recruiter_id=3&recruiter_token=rtok"
	if err := conn.WriteJSON(helloFrame{Type: "hello", LaunchURL: launch}); err != nil {
		t.Fatalf("failed to send hello: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("expected error frame, got %q", frame.Type)
	}
	if frame.Message != "Failed to load questions." {
		t.Errorf("unexpected error message: %q", frame.Message)
	}
}

func TestMissingHelloFrameRejected(t *testing.T) {
	apiServer := fakeRecruiterAPI(t, []string{"Q1"})
	defer apiServer.Close()

	srv, err := New(testConfig(t, apiServer.URL))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	gateway := httptest.NewServer(srv.Handler())
	defer gateway.Close()

	conn := dialWS(t, gateway)
	defer conn.Close()

	if err := conn.WriteJSON(commandFrame{Type: "initiate"}); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("expected error frame, got %q", frame.Type)
	}
}

func TestHealthEndpoint(t *testing.T) {
	apiServer := fakeRecruiterAPI(t, []string{"Q1"})
	defer apiServer.Close()

	srv, err := New(testConfig(t, apiServer.URL))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	gateway := httptest.NewServer(srv.Handler())
	defer gateway.Close()

	resp, err := http.Get(gateway.URL + "/healthz")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStopClosesActiveSessions(t *testing.T) {
	apiServer := fakeRecruiterAPI(t, []string{"Q1"})
	defer apiServer.Close()

	srv, err := New(testConfig(t, apiServer.URL))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	gateway := httptest.NewServer(srv.Handler())
	defer gateway.Close()

	conn := dialWS(t, gateway)
	defer conn.Close()

	launch := "https://app.example.com/interview?candidate_id=7&candidate_token=ctok&recruiter_id=3&recruiter_token=rtok"
	if err := conn.WriteJSON(helloFrame{Type: "hello", LaunchURL: launch}); err != nil {
		t.Fatalf("failed to send hello: %v", err)
	}
	if frame := readFrame(t, conn); frame.Type != "session" {
		t.Fatalf("expected session frame, got %q", frame.Type)
	}

	// Stop must not wait for the client to hang up.
	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop blocked on an open session")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break // server closed the connection
		}
	}
}

func TestConnDeviceFanOut(t *testing.T) {
	device := newConnDevice()

	stream, err := device.Open(context.Background())
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}

	device.feed([]byte{0x01, 0x02})

	select {
	case chunk := <-stream.Chunks():
		if len(chunk) != 2 || chunk[0] != 0x01 {
			t.Errorf("unexpected chunk: %v", chunk)
		}
	case <-time.After(time.Second):
		t.Fatal("chunk never delivered")
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("failed to close stream: %v", err)
	}

	// Feeding after close must not panic or deliver.
	device.feed([]byte{0x03})
	if chunk, ok := <-stream.Chunks(); ok {
		t.Errorf("expected closed channel, got chunk %v", chunk)
	}
}

func TestConnDeviceCopiesChunks(t *testing.T) {
	device := newConnDevice()
	stream, err := device.Open(context.Background())
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer stream.Close()

	buf := []byte{0xAA}
	device.feed(buf)
	buf[0] = 0xBB

	select {
	case chunk := <-stream.Chunks():
		if chunk[0] != 0xAA {
			t.Errorf("chunk aliases caller buffer: got %#x", chunk[0])
		}
	case <-time.After(time.Second):
		t.Fatal("chunk never delivered")
	}
}
