package retention

import (
	"context"
	"testing"
	"time"

	"parapet-hq/parapet/pkg/audit"
	"parapet-hq/parapet/pkg/audit/storage"
)

func seed(t *testing.T, s audit.Storage, id string, age time.Duration) {
	t.Helper()
	err := s.Store(context.Background(), &audit.DecisionRecord{
		ID:        id,
		Time:      time.Now().Add(-age),
		Endpoint:  "e",
		Phase:     "input",
		Decision:  "allow",
		RuleIndex: -1,
		UserRole:  "analyst",
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestPruner_ByAge(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, "old", 100*24*time.Hour)
	seed(t, store, "older", 200*24*time.Hour)
	seed(t, store, "fresh", 24*time.Hour)

	p := NewPruner(store, &Config{RetentionDays: 90})
	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d, want 2", deleted)
	}

	left, _ := store.Count(context.Background(), &audit.Query{})
	if left != 1 {
		t.Errorf("%d records left, want 1", left)
	}
}

func TestPruner_ByCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	for i := 0; i < 10; i++ {
		seed(t, store, string(rune('a'+i)), time.Duration(i)*time.Hour)
	}

	p := NewPruner(store, &Config{MaxRecords: 4})
	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 6 {
		t.Errorf("deleted %d, want 6", deleted)
	}

	// The newest records survive.
	left, _ := store.Query(context.Background(), &audit.Query{})
	if len(left) != 4 {
		t.Fatalf("%d records left, want 4", len(left))
	}
	if left[0].ID != "a" {
		t.Errorf("newest surviving record = %s, want a", left[0].ID)
	}
}

func TestPruner_DisabledKeepsEverything(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, "ancient", 1000*24*time.Hour)

	p := NewPruner(store, &Config{RetentionDays: 0, MaxRecords: 0})
	deleted, err := p.Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune = %d, %v; want 0, nil", deleted, err)
	}
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{PruneSchedule: "not a cron"})
	s := NewScheduler(p)
	if err := s.Start(context.Background()); err == nil {
		t.Error("invalid cron expression should be rejected")
	}
}

func TestScheduler_EmptyScheduleIdles(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), &Config{PruneSchedule: ""})
	s := NewScheduler(p)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.NextRun() != nil {
		t.Error("idle scheduler should have no next run")
	}
}
