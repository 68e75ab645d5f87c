package vitals

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sample is a reading tagged with the question it was captured under.
type Sample struct {
	Reading    Reading   `json:"reading"`
	QuestionID string    `json:"questionId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Poller periodically reads the sensor file for the lifetime of a session.
// It is best-effort telemetry: read failures are logged and yield a neutral
// zero reading.
type Poller struct {
	reader   *Reader
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	latest  Reading
	samples []Sample
	tag     string
	cancel  context.CancelFunc
}

// NewPoller creates a poller over the given reader. A non-positive interval
// defaults to 500ms.
func NewPoller(reader *Reader, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Poller{reader: reader, interval: interval, logger: logger}
}

// Start begins polling until Stop is called or ctx is cancelled. Calling
// Start while already running restarts the loop.
func (p *Poller) Start(ctx context.Context) {
	p.Stop()

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop halts the polling loop. Safe to call when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SetQuestion tags subsequent samples with the question being answered.
func (p *Poller) SetQuestion(questionID string) {
	p.mu.Lock()
	p.tag = questionID
	p.mu.Unlock()
}

// Latest returns the most recent reading (zero until the first poll).
func (p *Poller) Latest() Reading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Samples returns a copy of all samples captured since the poller was created.
func (p *Poller) Samples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reading, err := p.reader.Read()
			if err != nil {
				if p.logger != nil {
					p.logger.Printf("vitals: read failed: %v", err)
				}
				reading = Reading{}
			}
			p.mu.Lock()
			p.latest = reading
			p.samples = append(p.samples, Sample{
				Reading:    reading,
				QuestionID: p.tag,
				Timestamp:  time.Now().UTC(),
			})
			p.mu.Unlock()
		}
	}
}
