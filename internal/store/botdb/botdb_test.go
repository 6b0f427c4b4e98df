package botdb

import (
	"context"
	"testing"
	"time"

	"chartabot/internal/model"
)

func TestRecordAndLoadOutcomes(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	db.RecordOutcome(ctx, model.PipelineEvent{Timestamp: now, Type: "reply", MentionID: "m1"})
	db.RecordOutcome(ctx, model.PipelineEvent{Timestamp: now.Add(time.Minute), Type: "silent_failure", MentionID: "m2", Stage: "render"})

	all, err := db.LoadOutcomesRange(ctx, now.Add(-time.Hour), now.Add(time.Hour), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(all))
	}
	if all[1].Stage != "render" {
		t.Fatalf("stage not persisted: %+v", all[1])
	}

	replies, err := db.LoadOutcomesRange(ctx, now.Add(-time.Hour), now.Add(time.Hour), "reply")
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 1 || replies[0].MentionID != "m1" {
		t.Fatalf("type filter broken: %+v", replies)
	}
}

func TestCountOutcomesWithin(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		db.RecordOutcome(ctx, model.PipelineEvent{Timestamp: now.Add(time.Duration(i) * time.Minute), Type: "reply", MentionID: "m"})
	}
	db.RecordOutcome(ctx, model.PipelineEvent{Timestamp: now.Add(2 * time.Hour), Type: "reply", MentionID: "late"})

	n, err := db.CountOutcomesWithin(ctx, now, now.Add(time.Hour), "reply")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 in window, got %d", n)
	}
}
