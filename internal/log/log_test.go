package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"nonsense", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		SetupTo(&bytes.Buffer{}, tt.in, false)
		if got := logrus.GetLevel(); got != tt.want {
			t.Errorf("Setup(%q) level = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupTo(&buf, "info", true)
	defer SetupTo(&bytes.Buffer{}, "info", false)

	logrus.WithField("source", "https://src.example/").Info("extraction finished")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["source"] != "https://src.example/" {
		t.Errorf("source field = %v, want https://src.example/", entry["source"])
	}
	if entry["msg"] != "extraction finished" {
		t.Errorf("msg = %v, want extraction finished", entry["msg"])
	}
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	SetupTo(&buf, "info", false)

	logrus.Debug("hidden")
	logrus.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line logged at info level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info line missing: %s", out)
	}
}
