package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codr1/Escapade/internal/testutil"
	"github.com/codr1/Escapade/internal/widget"
)

func TestSeed_InsertsDuplicates(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	input := `[{"date":"2024-03-10","time":"14:00"},{"date":"2024-03-10","time":"14:00"},{"date":"2024-03-11","time":"16:00"}]`
	count, err := seed(ctx, database, strings.NewReader(input))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	rows, err := database.Queries.ListActiveBookedSlots(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
}

func TestSeed_MalformedWritesNothing(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := seed(ctx, database, strings.NewReader(`[{"date":"2024-03-10"}]`))
	if !errors.Is(err, widget.ErrMalformedBookings) {
		t.Fatalf("expected ErrMalformedBookings, got %v", err)
	}

	rows, err := database.Queries.ListActiveBookedSlots(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}
