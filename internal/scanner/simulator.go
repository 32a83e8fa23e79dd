package scanner

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Simulator stands in for camera hardware. A session waits for a code
// pushed through Inject, which plays the role of the decoder firing.
type Simulator struct {
	logger *zap.Logger

	mu      sync.Mutex
	active  bool
	session string // current scan session id
	feed    chan string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewSimulator(logger *zap.Logger) *Simulator {
	return &Simulator{logger: logger}
}

func (s *Simulator) Start(ctx context.Context, cb Callbacks) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrAlreadyScanning
	}

	sessionID := uuid.NewString()
	feed := make(chan string, 1)
	ctx, cancel := context.WithCancel(ctx)

	s.active = true
	s.session = sessionID
	s.feed = feed
	s.cancel = cancel

	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("scan session started", zap.String("session", sessionID))

	go func() {
		defer s.wg.Done()
		defer s.release(sessionID)

		select {
		case code := <-feed:
			s.logger.Info("scan decoded",
				zap.String("session", sessionID),
				zap.String("code", code))
			cb.OnDecode(code)
		case <-ctx.Done():
			s.logger.Info("scan session cancelled", zap.String("session", sessionID))
			if cb.OnError != nil {
				cb.OnError(ctx.Err())
			}
		}
	}()

	return nil
}

// Inject delivers a decoded code to the active session.
func (s *Simulator) Inject(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNotScanning
	}

	select {
	case s.feed <- code:
		return nil
	default:
		// A decode is already queued for this session.
		return ErrNotScanning
	}
}

func (s *Simulator) Stop() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	return nil
}

// release returns the simulated device to idle. The session id guards
// against a stale goroutine releasing a newer session.
func (s *Simulator) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != sessionID {
		return
	}
	s.active = false
	s.session = ""
	s.feed = nil
	s.cancel()
	s.cancel = nil
}
