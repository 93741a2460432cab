package media

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewResult(t *testing.T) {
	now := time.Date(2024, time.March, 7, 15, 4, 9, 0, time.Local)
	r := NewResult("https://cdn.example/master.m3u8", "", 1234*time.Millisecond, now)

	if r.MasterLink == nil || *r.MasterLink != "https://cdn.example/master.m3u8" {
		t.Errorf("MasterLink = %v, want https://cdn.example/master.m3u8", r.MasterLink)
	}
	if r.PlyrLink != nil {
		t.Errorf("PlyrLink = %q, want nil", *r.PlyrLink)
	}
	if r.Date != "3/7/2024" {
		t.Errorf("Date = %q, want 3/7/2024", r.Date)
	}
	if r.Time != "3:04:09 PM" {
		t.Errorf("Time = %q, want 3:04:09 PM", r.Time)
	}
	if r.Duration != "1.23 seconds" {
		t.Errorf("Duration = %q, want 1.23 seconds", r.Duration)
	}
	if r.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestResultJSONNulls(t *testing.T) {
	r := NewResult("", "", 0, time.Now())
	if !r.Empty() {
		t.Fatal("Empty() = false, want true")
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	for _, k := range []string{"masterLink", "plyrLink"} {
		v, ok := got[k]
		if !ok {
			t.Errorf("key %q missing from %s", k, data)
		}
		if v != nil {
			t.Errorf("%s = %v, want null", k, v)
		}
	}
	if got["duration"] != "0.00 seconds" {
		t.Errorf("duration = %v, want 0.00 seconds", got["duration"])
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OK, "ok"},
		{Degraded, "degraded"},
		{Failed, "failed"},
		{Outcome(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
