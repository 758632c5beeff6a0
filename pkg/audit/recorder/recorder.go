// Package recorder turns decision events into persisted audit records.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"parapet-hq/parapet/pkg/audit"
	"parapet-hq/parapet/pkg/policy/engine"
)

// Config configures the recorder.
type Config struct {
	// Buffer is the size of the async write channel. Default 1000.
	Buffer int

	// WriteTimeout bounds each storage write. Default 5s.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder persists decision events asynchronously. It implements
// engine.Observer; ObserveDecision enqueues and returns immediately so
// enforcement never waits on storage. When the buffer is full the event is
// dropped and counted rather than blocking the request path.
type Recorder struct {
	storage audit.Storage
	config  *Config
	logger  *slog.Logger

	recordCh chan *audit.DecisionRecord
	done     chan struct{}
	wg       sync.WaitGroup
	dropped  atomic.Int64
}

// NewRecorder starts a recorder writing to storage.
func NewRecorder(storage audit.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Buffer <= 0 {
		config.Buffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:  storage,
		config:   config,
		logger:   slog.Default().With("component", "audit.recorder"),
		recordCh: make(chan *audit.DecisionRecord, config.Buffer),
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder started", "buffer", config.Buffer)
	return r
}

// ObserveDecision converts the event to a record and enqueues it.
func (r *Recorder) ObserveDecision(_ context.Context, event engine.DecisionEvent) {
	record := buildRecord(event)

	select {
	case r.recordCh <- record:
	default:
		n := r.dropped.Add(1)
		r.logger.Error("audit buffer full, record dropped",
			"record_id", record.ID,
			"endpoint", record.Endpoint,
			"dropped_total", n,
		)
	}
}

// Dropped returns how many records were dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains the buffer and stops the worker. Records observed after
// Close begins may be dropped.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	r.logger.Info("audit recorder stopped", "dropped_total", r.dropped.Load())
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordCh:
			r.write(record)
		case <-r.done:
			for {
				select {
				case record := <-r.recordCh:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *audit.DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"endpoint", record.Endpoint,
			"error", err,
		)
	}
}

func buildRecord(event engine.DecisionEvent) *audit.DecisionRecord {
	record := &audit.DecisionRecord{
		ID:        uuid.NewString(),
		Time:      event.Time,
		Endpoint:  event.Endpoint,
		Phase:     string(event.Phase),
		Decision:  string(event.Decision),
		Reason:    event.Reason,
		RuleIndex: event.RuleIndex,
		UserRole:  engine.AnonymousRole,
		Duration:  event.Duration,
	}
	if event.Err != nil {
		record.Error = event.Err.Error()
	}
	if event.User != nil {
		record.UserID = event.User.ID
		record.UserRole = event.User.Role
	}
	if event.PolicyVersion != nil {
		record.PolicyCommit = event.PolicyVersion.CommitSHA
	}
	return record
}
