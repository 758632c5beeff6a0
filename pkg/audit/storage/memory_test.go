package storage

import (
	"context"
	"testing"
	"time"

	"parapet-hq/parapet/pkg/audit"
)

func record(id, endpoint, decision, userID string, at time.Time) *audit.DecisionRecord {
	return &audit.DecisionRecord{
		ID:        id,
		Time:      at,
		Endpoint:  endpoint,
		Phase:     "input",
		Decision:  decision,
		RuleIndex: -1,
		UserID:    userID,
		UserRole:  "analyst",
	}
}

func TestMemoryStorage_StoreAndQuery(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, r := range []*audit.DecisionRecord{
		record("1", "a", "allow", "u1", base),
		record("2", "a", "deny", "u1", base.Add(time.Minute)),
		record("3", "b", "deny", "u2", base.Add(2*time.Minute)),
	} {
		if err := s.Store(ctx, r); err != nil {
			t.Fatalf("Store %d: %v", i, err)
		}
	}

	got, err := s.Query(ctx, &audit.Query{Endpoint: "a"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("order = %s,%s; want newest first", got[0].ID, got[1].ID)
	}

	got, _ = s.Query(ctx, &audit.Query{Decision: "deny"})
	if len(got) != 2 {
		t.Errorf("deny filter matched %d, want 2", len(got))
	}

	n, _ := s.Count(ctx, &audit.Query{UserID: "u1"})
	if n != 2 {
		t.Errorf("Count user u1 = %d, want 2", n)
	}
}

func TestMemoryStorage_TimeRange(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_ = s.Store(ctx, record(string(rune('a'+i)), "e", "allow", "u", base.Add(time.Duration(i)*time.Hour)))
	}

	start := base.Add(time.Hour)
	end := base.Add(3 * time.Hour)
	got, err := s.Query(ctx, &audit.Query{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("range matched %d records, want 3", len(got))
	}
}

func TestMemoryStorage_Pagination(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		_ = s.Store(ctx, record(string(rune('a'+i)), "e", "allow", "u", base.Add(time.Duration(i)*time.Minute)))
	}

	page, err := s.Query(ctx, &audit.Query{Limit: 3, Offset: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("page has %d records, want 3", len(page))
	}
	// Newest first: offset 2 skips the two most recent.
	if page[0].ID != "h" {
		t.Errorf("page starts at %s, want h", page[0].ID)
	}
}

func TestMemoryStorage_Delete(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Store(ctx, record("1", "a", "allow", "u", base))
	_ = s.Store(ctx, record("2", "b", "allow", "u", base))

	n, err := s.Delete(ctx, &audit.Query{Endpoint: "a"})
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v; want 1", n, err)
	}
	left, _ := s.Count(ctx, &audit.Query{})
	if left != 1 {
		t.Errorf("%d records left, want 1", left)
	}
}

func TestMemoryStorage_CopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	r := record("1", "a", "allow", "u", time.Now())
	_ = s.Store(ctx, r)
	r.Decision = "deny"

	got, _ := s.Query(ctx, &audit.Query{})
	if got[0].Decision != "allow" {
		t.Error("stored record aliased caller's memory")
	}
}
