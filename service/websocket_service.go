package service

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tieubaoca/compliance-be/repository"
	"github.com/tieubaoca/compliance-be/types"
)

// ProgressStreamService streams run progress to websocket clients. It is
// the engine's ProgressSink; Publish never blocks, a slow client just
// misses intermediate snapshots and still receives the terminal one from
// its own resend loop.
type ProgressStreamService struct {
	progress repository.ProgressRepo
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[string]map[chan types.RunProgress]struct{}
}

func NewProgressStreamService(progress repository.ProgressRepo) *ProgressStreamService {
	return &ProgressStreamService{
		progress: progress,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
		subscribers: make(map[string]map[chan types.RunProgress]struct{}),
	}
}

// Publish fans a snapshot out to every subscriber of its run.
func (s *ProgressStreamService) Publish(progress types.RunProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[progress.RunID] {
		select {
		case ch <- progress:
		default:
		}
	}
}

func (s *ProgressStreamService) subscribe(runID string) chan types.RunProgress {
	ch := make(chan types.RunProgress, 16)
	s.mu.Lock()
	if s.subscribers[runID] == nil {
		s.subscribers[runID] = make(map[chan types.RunProgress]struct{})
	}
	s.subscribers[runID][ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *ProgressStreamService) unsubscribe(runID string, ch chan types.RunProgress) {
	s.mu.Lock()
	delete(s.subscribers[runID], ch)
	if len(s.subscribers[runID]) == 0 {
		delete(s.subscribers, runID)
	}
	s.mu.Unlock()
}

// HandleProgress upgrades the request and streams snapshots for one run
// until the run reaches a terminal phase or the client goes away.
func (s *ProgressStreamService) HandleProgress(w http.ResponseWriter, r *http.Request, runID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe(runID)
	defer s.unsubscribe(runID, ch)

	// read pump, only to notice the client closing
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// send what we already know before waiting for updates
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	snapshot, err := s.progress.GetProgress(ctx, runID)
	cancel()
	if err == nil {
		if writeErr := conn.WriteJSON(snapshot); writeErr != nil {
			return
		}
		if snapshot.Phase.Terminal() {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case update := <-ch:
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Phase.Terminal() {
				return
			}
		case <-time.After(30 * time.Second):
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
