package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PORT", "")
	t.Cleanup(func() {
		flagNoBrowser, flagCandidates, flagDebug, flagJSON = false, false, false, false
		flagConfig, flagListen = "", ""
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "vidlink ") {
		t.Errorf("version output = %q, want vidlink prefix", out)
	}
}

func TestExtractCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			w.Write([]byte(`<span onclick="player_iframe.location.href = '/embed/7'">play</span>`))
		case "/embed/7":
			w.Write([]byte(`sources: ["https://cdn.example/7/master.m3u8"]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := run(t, "extract", "--no-browser", "--candidates", srv.URL+"/watch")
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}

	var got struct {
		MasterLink *string  `json:"masterLink"`
		PlyrLink   *string  `json:"plyrLink"`
		Candidates []string `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.MasterLink == nil || *got.MasterLink != "https://cdn.example/7/master.m3u8" {
		t.Errorf("masterLink = %v, want https://cdn.example/7/master.m3u8", got.MasterLink)
	}
	if got.PlyrLink == nil || *got.PlyrLink != srv.URL+"/embed/7" {
		t.Errorf("plyrLink = %v, want %s/embed/7", got.PlyrLink, srv.URL)
	}
	if len(got.Candidates) != 1 {
		t.Errorf("candidates = %v, want one", got.Candidates)
	}
}

func TestExtractCommandRejectsBadURL(t *testing.T) {
	if _, err := run(t, "extract", "--no-browser", "file:///etc/passwd"); err == nil {
		t.Error("extract with a file URL should fail")
	}
}
