package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/codeGROOVE-dev/zipTZ/pkg/display"
)

const newYorkBody = `{"post code": "10001", "country": "United States", "country abbreviation": "US",
 "places": [{"place name": "New York City", "longitude": "-73.9967", "state": "New York",
 "state abbreviation": "NY", "latitude": "40.7484"}]}`

// isolate keeps the developer's config and keys out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"GOOGLE_MAPS_API_KEY", "GEMINI_API_KEY", "GEMINI_MODEL", "GCP_PROJECT", "CACHE_DIR",
		"ZIPTZ_MAPS_KEY", "ZIPTZ_GEMINI_KEY", "ZIPTZ_GEMINI_MODEL", "ZIPTZ_NO_CACHE", "ZIPTZ_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func zippopotamServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/us/10001" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newYorkBody)) //nolint:errcheck // test server
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestOnce(t *testing.T) {
	isolate(t)
	server := zippopotamServer(t)

	out, err := execute(t, "", "--once", "--no-cache", "--logo", "", "--zippopotam-url", server.URL, "10001")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"New York City", "NY", "Eastern Time", "[logo unavailable]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOnceErrors(t *testing.T) {
	isolate(t)
	server := zippopotamServer(t)

	tests := []struct {
		name string
		zip  string
		want string
	}{
		{"invalid", "12ab", "please enter a valid 5-digit ZIP code"},
		{"unknown", "00000", "no timezone information found for this ZIP code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", "--once", "--no-cache", "--zippopotam-url", server.URL, tt.zip)
			var failed *queryError
			if !errors.As(err, &failed) {
				t.Fatalf("error = %v, want a queryError", err)
			}
			if !strings.Contains(out, "⚠️  "+tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestOnceNeedsZIP(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "", "--once"); err == nil {
		t.Error("expected an error without a ZIP argument")
	}
}

func TestSession(t *testing.T) {
	isolate(t)
	server := zippopotamServer(t)

	out, err := execute(t, "123\n10001\nclear\nquit\n90210\n",
		"--no-cache", "--logo", "", "--zippopotam-url", server.URL)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	invalid := strings.Index(out, "please enter a valid 5-digit ZIP code")
	found := strings.Index(out, "New York City")
	if invalid < 0 || found < 0 || invalid > found {
		t.Errorf("expected the error card before the result card:\n%s", out)
	}
	if strings.Contains(out, "no timezone information") {
		t.Errorf("input after quit was processed:\n%s", out)
	}
	// Start, then one prompt per handled line before quit.
	if got := strings.Count(out, display.PromptText); got != 4 {
		t.Errorf("printed %d prompts, want 4:\n%s", got, out)
	}
}

func TestSessionEOF(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "", "--no-cache"); err != nil {
		t.Errorf("execute: %v", err)
	}
}

func TestConfigPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		env   map[string]string
		flags []string
		check func(t *testing.T, cfg config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg config) {
				if cfg.GeminiModel != "gemini-2.5-flash-lite" || cfg.CacheTTL != 30*24*time.Hour || cfg.NoCache {
					t.Errorf("defaults = %+v", cfg)
				}
			},
		},
		{
			name: "config file",
			file: "gemini-model: from-file\ncache-ttl: 1h\n",
			check: func(t *testing.T, cfg config) {
				if cfg.GeminiModel != "from-file" || cfg.CacheTTL != time.Hour {
					t.Errorf("file values not applied: %+v", cfg)
				}
			},
		},
		{
			name: "env over file",
			file: "gemini-model: from-file\n",
			env:  map[string]string{"GEMINI_MODEL": "from-env", "ZIPTZ_NO_CACHE": "true"},
			check: func(t *testing.T, cfg config) {
				if cfg.GeminiModel != "from-env" || !cfg.NoCache {
					t.Errorf("env values not applied: %+v", cfg)
				}
			},
		},
		{
			name:  "flag over env",
			env:   map[string]string{"GEMINI_MODEL": "from-env"},
			flags: []string{"--gemini-model", "from-flag"},
			check: func(t *testing.T, cfg config) {
				if cfg.GeminiModel != "from-flag" {
					t.Errorf("GeminiModel = %q, want from-flag", cfg.GeminiModel)
				}
			},
		},
		{
			name: "shared key variables",
			env:  map[string]string{"GOOGLE_MAPS_API_KEY": "maps", "ZIPTZ_GEMINI_KEY": "gem"},
			check: func(t *testing.T, cfg config) {
				if cfg.MapsKey != "maps" || cfg.GeminiKey != "gem" {
					t.Errorf("keys = %q/%q", cfg.MapsKey, cfg.GeminiKey)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var cfgFile string
			if tt.file != "" {
				cfgFile = filepath.Join(t.TempDir(), "config.yaml")
				if err := os.WriteFile(cfgFile, []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}
			v := viper.New()
			if err := initConfig(v, cmd, cfgFile); err != nil {
				t.Fatalf("initConfig: %v", err)
			}
			tt.check(t, loadConfig(v))
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	isolate(t)
	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	if err := initConfig(viper.New(), cmd, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for an explicit config file that does not exist")
	}
}
