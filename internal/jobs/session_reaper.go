package jobs

import (
	"log"
	"sync"
	"time"
)

// IdleReaper is implemented by the session registry.
type IdleReaper interface {
	ReapIdle(maxIdle time.Duration) int
}

// SessionReaperJob exits and removes interview sessions that have seen no
// activity for longer than maxIdle. Abandoned browser tabs would otherwise
// keep their vitals pollers and audio plumbing alive indefinitely.
type SessionReaperJob struct {
	registry IdleReaper
	logger   *log.Logger
	interval time.Duration
	maxIdle  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSessionReaperJob creates a new session reaper job.
func NewSessionReaperJob(registry IdleReaper, logger *log.Logger, interval, maxIdle time.Duration) *SessionReaperJob {
	if interval == 0 {
		interval = 1 * time.Minute
	}
	if maxIdle == 0 {
		maxIdle = 30 * time.Minute
	}
	return &SessionReaperJob{
		registry: registry,
		logger:   logger,
		interval: interval,
		maxIdle:  maxIdle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background job.
func (j *SessionReaperJob) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("SessionReaperJob: started (interval=%v, maxIdle=%v)", j.interval, j.maxIdle)
}

// Stop gracefully stops the background job.
func (j *SessionReaperJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Println("SessionReaperJob: stopped")
}

func (j *SessionReaperJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			if n := j.registry.ReapIdle(j.maxIdle); n > 0 {
				j.logger.Printf("SessionReaperJob: reaped %d idle session(s)", n)
			}
		}
	}
}
