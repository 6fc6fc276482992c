package ingest

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// RefreshScheduler re-runs ingestion on a cron schedule so corpus edits
// on disk show up without a restart.
type RefreshScheduler struct {
	Spec    string
	Refresh func(ctx context.Context) error
	Stop    chan struct{}
	logger  *log.Logger
	lastRun time.Time
}

// NewRefreshScheduler validates the cron spec up front.
func NewRefreshScheduler(spec string, refresh func(ctx context.Context) error) (*RefreshScheduler, error) {
	if _, err := cronexpr.Parse(spec); err != nil {
		return nil, err
	}
	return &RefreshScheduler{
		Spec:    spec,
		Refresh: refresh,
		Stop:    make(chan struct{}),
		logger:  log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
		lastRun: time.Now(),
	}, nil
}

// Start ticks once a minute and fires the refresh when the schedule is
// due.
func (s *RefreshScheduler) Start() {
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *RefreshScheduler) tick() {
	expr, err := cronexpr.Parse(s.Spec)
	if err != nil {
		return
	}
	next := expr.Next(s.lastRun)
	if next.IsZero() || next.After(time.Now()) {
		return
	}
	s.lastRun = time.Now()
	if err := s.Refresh(context.Background()); err != nil {
		s.logger.Printf("WARNING: scheduled refresh failed: %v", err)
	}
}
