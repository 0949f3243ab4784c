package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampEncoding(t *testing.T) {
	ts := At(time.Date(2026, 1, 2, 3, 4, 5, 678901234, time.FixedZone("IST", 19800)))
	raw, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"2026-01-01T21:34:05.678Z"` {
		t.Fatalf("unexpected encoding %s", raw)
	}
	var back Timestamp
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != ts {
		t.Fatalf("round trip changed value: %v vs %v", back, ts)
	}
	zero, _ := json.Marshal(Timestamp{})
	if string(zero) != "null" {
		t.Fatalf("zero timestamp should encode as null, got %s", zero)
	}
}

func TestTimestampLenientDecode(t *testing.T) {
	for _, input := range []string{`null`, `""`, `"not a date"`, `42`, `{}`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(input), &ts); err != nil {
			t.Fatalf("%s: unexpected error %v", input, err)
		}
		if !ts.IsZero() {
			t.Fatalf("%s: expected zero timestamp, got %v", input, ts)
		}
	}
	var day Timestamp
	if err := json.Unmarshal([]byte(`"2026-05-01"`), &day); err != nil || day.Year() != 2026 || day.Month() != time.May {
		t.Fatalf("date-only decode failed: %v %v", day, err)
	}
}

func TestTimestampSameDay(t *testing.T) {
	loc := time.FixedZone("IST", 19800)
	ts := At(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	if !ts.SameDay(time.Date(2026, 1, 2, 8, 0, 0, 0, loc), loc) {
		t.Fatalf("expected same local day")
	}
	if ts.SameDay(time.Date(2026, 1, 1, 8, 0, 0, 0, loc), loc) {
		t.Fatalf("expected different local day")
	}
	if (Timestamp{}).SameDay(time.Now(), time.UTC) {
		t.Fatalf("zero timestamp is never today")
	}
}

func TestRoles(t *testing.T) {
	for _, r := range Roles() {
		if !r.Valid() {
			t.Fatalf("%s should be valid", r)
		}
		if r.HomePage() != string(r)+".html" {
			t.Fatalf("unexpected home page %s for %s", r.HomePage(), r)
		}
	}
	if _, ok := ParseRole("nurse"); ok {
		t.Fatalf("nurse is not a role")
	}
	if Role("nurse").HomePage() != PageIndex {
		t.Fatalf("unknown roles go to the index page")
	}
}

func TestSessionDisplayName(t *testing.T) {
	s := SessionRecord{Username: "jdoe"}
	if s.DisplayName() != "jdoe" {
		t.Fatalf("expected username fallback")
	}
	s.FirstName, s.LastName = "Jane", "Doe"
	if s.DisplayName() != "Jane Doe" {
		t.Fatalf("unexpected display name %q", s.DisplayName())
	}
	if s.Owner().FirstName != "Jane" {
		t.Fatalf("owner lost first name")
	}
}
