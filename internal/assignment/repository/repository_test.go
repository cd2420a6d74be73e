package repository

import (
	"encoding/json"
	"testing"
)

func TestNextCursorVisitsEveryPosition(t *testing.T) {
	cursor := 0
	seen := map[int]bool{}
	for i := 0; i < 4; i++ {
		used, next := NextCursor(cursor, 4)
		seen[used] = true
		cursor = next
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct positions, got %v", seen)
	}
	if cursor != 0 {
		t.Fatalf("expected cursor to wrap to 0, got %d", cursor)
	}
}

func TestNextCursorResetsOutOfRange(t *testing.T) {
	used, next := NextCursor(7, 3)
	if used != 0 || next != 1 {
		t.Fatalf("expected 0/1, got %d/%d", used, next)
	}
	used, next = NextCursor(0, 0)
	if used != 0 || next != 0 {
		t.Fatalf("expected 0/0 for empty pool, got %d/%d", used, next)
	}
}

func TestConditionsAcceptScalarsAndNumbers(t *testing.T) {
	var c Conditions
	raw := `{"source":"Google","preferred_budget":[50000,"100000-200000"],"mode":null,"utmCampaign":["", "spring"]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c["source"]) != 1 || c["source"][0] != "Google" {
		t.Fatalf("expected scalar source wrapped in list, got %v", c["source"])
	}
	if len(c["preferred_budget"]) != 2 || c["preferred_budget"][0] != "50000" {
		t.Fatalf("expected numeric budget formatted, got %v", c["preferred_budget"])
	}
	if len(c["mode"]) != 0 {
		t.Fatalf("expected null mode to be empty, got %v", c["mode"])
	}
	if len(c["utmCampaign"]) != 1 {
		t.Fatalf("expected empty strings dropped, got %v", c["utmCampaign"])
	}
}
