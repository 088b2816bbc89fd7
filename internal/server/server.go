package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Bhardwaj-Devesh/recorder/internal/api"
	"github.com/Bhardwaj-Devesh/recorder/internal/capture"
	"github.com/Bhardwaj-Devesh/recorder/internal/config"
	"github.com/Bhardwaj-Devesh/recorder/internal/interview"
	"github.com/Bhardwaj-Devesh/recorder/internal/params"
	"github.com/Bhardwaj-Devesh/recorder/internal/recognition"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	redis "github.com/redis/go-redis/v9"
)

// Server is the interview gateway. Each WebSocket connection hosts one
// interview session driven by its own recording engine; binary frames from
// the client carry media chunks, text frames carry commands.
type Server struct {
	cfg      *config.Config
	factory  recognition.Factory
	memCache *params.MemoryCache
	redis    *redis.Client
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	stopping bool
}

func New(cfg *config.Config) (*Server, error) {
	factory, err := recognition.NewFactory(cfg.Recognition.Provider, cfg.Recognition.ServerURL, cfg.Recognition.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to configure recognition: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	s := &Server{
		cfg:      cfg,
		factory:  factory,
		memCache: params.NewMemoryCache(),
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	s.httpServer = &http.Server{Handler: mux}

	return s, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	log.Printf("Interview gateway listening on %s", addr)
	log.Printf("Recognition provider: %s", s.cfg.Recognition.Provider)

	if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the listener and force-closes every live session.
// http.Server.Shutdown does not touch hijacked WebSocket connections, so
// those are closed explicitly to unblock the session read loops.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	s.mu.Lock()
	s.stopping = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// addConn registers a live connection for Stop to close. The WaitGroup add
// happens under the same lock that Stop takes before Wait, so a session is
// either fully registered or rejected, never half-tracked. Reports false
// once shutdown has begun, in which case the caller must bail out.
func (s *Server) addConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) removeConn(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed: %v", err)
		return
	}

	if !s.addConn(conn) {
		conn.Close()
		return
	}
	defer s.wg.Done()
	defer s.removeConn(conn)
	defer conn.Close()

	s.handleSession(conn)
}

func (s *Server) handleSession(conn *websocket.Conn) {
	sessionID := uuid.New().String()
	startTime := time.Now()
	log.Printf("Session %s connected from %s", sessionID, conn.RemoteAddr())

	var hello helloFrame
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "hello" {
		writeFrame(conn, serverFrame{Type: "error", Message: "expected a hello frame with the launch URL"})
		return
	}

	var cache params.Cache = s.memCache
	if s.redis != nil {
		cache = params.NewRedisCache(s.redis, s.cfg.Redis.Prefix)
	}
	store := params.NewStore(sessionID, hello.LaunchURL, cache)
	client := api.NewClient(s.cfg.API.BaseURL, store, time.Duration(s.cfg.API.TimeoutSeconds)*time.Second)

	ctx := context.Background()
	if candidate, err := client.FetchCandidate(ctx); err != nil {
		log.Printf("Session %s: candidate lookup failed: %v", sessionID, err)
	} else {
		log.Printf("Session %s: candidate %s <%s>", sessionID, candidate.Name, candidate.Email)
	}

	// Without questions there is no recording flow at all.
	questions, err := client.FetchRoundQuestions(ctx, s.cfg.API.Round)
	if err != nil || len(questions) == 0 {
		log.Printf("Session %s: failed to load questions: %v", sessionID, err)
		writeFrame(conn, serverFrame{Type: "error", Message: "Failed to load questions."})
		return
	}

	device := newConnDevice()
	manager := capture.NewManager(device)
	if _, err := manager.Acquire(ctx); err != nil {
		log.Printf("Session %s: failed to acquire stream: %v", sessionID, err)
		writeFrame(conn, serverFrame{Type: "error", Message: interview.MsgUnknownError})
		return
	}
	defer manager.Release()

	var logger *interview.SessionLogger
	if s.cfg.SessionLog.SaveEvents {
		logger, err = interview.NewSessionLogger(s.cfg.SessionLog.OutputDir, sessionID, startTime)
		if err != nil {
			log.Printf("Session %s: failed to create session logger: %v", sessionID, err)
		}
	}

	engine := interview.NewEngine(questions, manager, s.factory, client, interview.Options{
		CountdownSeconds: s.cfg.Interview.CountdownSeconds,
		AnswerSeconds:    s.cfg.Interview.AnswerSeconds,
		Round:            s.cfg.API.Round,
		Capture: capture.Options{
			MimeType:           s.cfg.Capture.MimeType,
			VideoBitsPerSecond: s.cfg.Capture.VideoBitsPerSecond,
		},
	}, logger)
	defer engine.Close()

	snapshot := engine.Snapshot()
	writeFrame(conn, serverFrame{Type: "session", Session: &snapshot})

	// Single writer: every frame after the snapshot comes from engine events.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range engine.Events() {
			e := ev
			if err := conn.WriteJSON(serverFrame{Type: "event", Event: &e}); err != nil {
				return
			}
		}
	}()

	s.readLoop(conn, engine, device, sessionID)

	engine.Close()
	<-done
	log.Printf("Session %s ended (Duration: %v)", sessionID, time.Since(startTime))
}

func (s *Server) readLoop(conn *websocket.Conn, engine *interview.Engine, device *connDevice, sessionID string) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Session %s: read error: %v", sessionID, err)
			}
			return
		}

		if kind == websocket.BinaryMessage {
			device.feed(data)
			continue
		}

		var cmd commandFrame
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("Session %s: bad command frame: %v", sessionID, err)
			continue
		}

		switch cmd.Type {
		case "initiate":
			engine.InitiateRecording(context.Background())
		case "stop":
			engine.StopRecording()
		case "rerecord":
			engine.ReRecord()
		case "next":
			engine.Next()
		case "submit":
			engine.FinalSubmit(context.Background())
		default:
			log.Printf("Session %s: unknown command: %s", sessionID, cmd.Type)
		}
	}
}

func writeFrame(conn *websocket.Conn, frame serverFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("Failed to write frame: %v", err)
	}
}
