package recorder

import (
	"context"
	"testing"
	"time"

	"parapet-hq/parapet/pkg/audit"
	"parapet-hq/parapet/pkg/audit/storage"
	"parapet-hq/parapet/pkg/policy/engine"
)

func sampleEvent() engine.DecisionEvent {
	return engine.DecisionEvent{
		Endpoint:  "employee_lookup",
		Phase:     engine.PhaseInput,
		Decision:  engine.DecisionDeny,
		Reason:    "Only admins",
		RuleIndex: 0,
		User:      &engine.UserContext{ID: "u1", Role: "analyst"},
		PolicyVersion: &engine.PolicyVersion{
			CommitSHA: "abc123",
		},
		Time:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration: 42 * time.Microsecond,
	}
}

func TestRecorder_PersistsEvents(t *testing.T) {
	store := storage.NewMemoryStorage()
	r := NewRecorder(store, nil)

	r.ObserveDecision(context.Background(), sampleEvent())
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, err := store.Query(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ID == "" {
		t.Error("record missing ID")
	}
	if rec.Endpoint != "employee_lookup" || rec.Phase != "input" || rec.Decision != "deny" {
		t.Errorf("record = %s/%s/%s", rec.Endpoint, rec.Phase, rec.Decision)
	}
	if rec.UserID != "u1" || rec.UserRole != "analyst" {
		t.Errorf("user = %s/%s", rec.UserID, rec.UserRole)
	}
	if rec.PolicyCommit != "abc123" {
		t.Errorf("PolicyCommit = %q", rec.PolicyCommit)
	}
}

func TestRecorder_AnonymousUser(t *testing.T) {
	store := storage.NewMemoryStorage()
	r := NewRecorder(store, nil)

	event := sampleEvent()
	event.User = nil
	event.PolicyVersion = nil
	r.ObserveDecision(context.Background(), event)
	_ = r.Close()

	records, _ := store.Query(context.Background(), &audit.Query{})
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].UserRole != engine.AnonymousRole {
		t.Errorf("UserRole = %q, want anonymous", records[0].UserRole)
	}
}

func TestRecorder_RecordsErrorDetail(t *testing.T) {
	store := storage.NewMemoryStorage()
	r := NewRecorder(store, nil)

	event := sampleEvent()
	event.Err = &engine.RuntimeEvaluationError{
		Endpoint: "employee_lookup", Phase: engine.PhaseInput, RuleIndex: 0,
	}
	r.ObserveDecision(context.Background(), event)
	_ = r.Close()

	records, _ := store.Query(context.Background(), &audit.Query{})
	if records[0].Error == "" {
		t.Error("internal error detail not recorded")
	}
}

func TestRecorder_FullBufferDropsNotBlocks(t *testing.T) {
	// blockingStorage never returns before the test ends, so the worker pins
	// on the first write and the 1-slot buffer fills.
	block := make(chan struct{})
	defer close(block)
	store := &blockingStorage{block: block}

	r := NewRecorder(store, &Config{Buffer: 1, WriteTimeout: time.Second})
	defer r.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.ObserveDecision(context.Background(), sampleEvent())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ObserveDecision blocked on full buffer")
	}
	if r.Dropped() == 0 {
		t.Error("expected dropped records to be counted")
	}
}

type blockingStorage struct {
	block chan struct{}
}

func (s *blockingStorage) Store(ctx context.Context, _ *audit.DecisionRecord) error {
	select {
	case <-s.block:
	case <-ctx.Done():
	}
	return nil
}

func (s *blockingStorage) Query(context.Context, *audit.Query) ([]*audit.DecisionRecord, error) {
	return nil, nil
}
func (s *blockingStorage) Count(context.Context, *audit.Query) (int64, error)  { return 0, nil }
func (s *blockingStorage) Delete(context.Context, *audit.Query) (int64, error) { return 0, nil }
func (s *blockingStorage) Close() error                                        { return nil }
