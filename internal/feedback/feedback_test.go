package feedback

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "feedback.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.Record(ctx, "what is in the q3 report?", "Revenue grew 4% [0].", 1)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	id2, err := s.Record(ctx, "who attended the meeting?", "The minutes do not say.", 0)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("IDs should be monotonically assigned: %d then %d", id1, id2)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first. Both rows share a created_at second, so id breaks the tie.
	if entries[0].ID != id2 {
		t.Errorf("first entry ID = %d, want %d", entries[0].ID, id2)
	}
	if entries[0].Query != "who attended the meeting?" || entries[0].Rating != 0 {
		t.Errorf("unexpected newest entry: %+v", entries[0])
	}
	if entries[1].Answer != "Revenue grew 4% [0]." || entries[1].Rating != 1 {
		t.Errorf("unexpected older entry: %+v", entries[1])
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated")
	}
}

func TestRecent_Limit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Record(ctx, "q", "a", i%2); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestRecord_InvalidRating(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	for _, rating := range []int{-1, 2, 5} {
		if _, err := s.Record(context.Background(), "q", "a", rating); err == nil {
			t.Errorf("rating %d should be rejected", rating)
		}
	}
}

func TestOpen_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feedback.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Record(context.Background(), "q", "a", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	entries, err := s2.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected the recorded entry to survive reopen, got %d entries", len(entries))
	}
}
