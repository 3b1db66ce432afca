package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/subagg-go/internal/config"
	"github.com/John-Robertt/subagg-go/internal/kv"
)

func TestDeriveHealthzURL_FromListenAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"127.0.0.1:25500", "http://127.0.0.1:25500/healthz"},
		{"0.0.0.0:25500", "http://127.0.0.1:25500/healthz"},
		{":25500", "http://127.0.0.1:25500/healthz"},
		{"25500", "http://127.0.0.1:25500/healthz"},
		{"[::]:25500", "http://127.0.0.1:25500/healthz"},
		{"http://127.0.0.1:25500", "http://127.0.0.1:25500/healthz"},
		{"http://127.0.0.1:25500/ready", "http://127.0.0.1:25500/ready"},
	}
	for _, tt := range tests {
		got, err := deriveHealthzURL(tt.in)
		if err != nil {
			t.Fatalf("deriveHealthzURL(%q) unexpected err: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("deriveHealthzURL(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeriveHealthzURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "localhost", "http://"} {
		if _, err := deriveHealthzURL(in); err == nil {
			t.Fatalf("deriveHealthzURL(%q) expected error", in)
		}
	}
}

func TestRunHealthcheck_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	defer ts.Close()

	if err := runHealthcheck(ts.URL+"/healthz", 200*time.Millisecond); err != nil {
		t.Fatalf("runHealthcheck unexpected err: %v", err)
	}
}

func TestRunHealthcheck_StatusNotOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	err := runHealthcheck(ts.URL, 200*time.Millisecond)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("err=%q, want contains %q", err.Error(), "unexpected status")
	}
}

// execute runs the CLI in an empty directory so no stray .env is picked up.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAggregateCmd_InlineSource(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	out, err := execute(t, "aggregate", "trojan://pw@1.2.3.4:443#edge-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "proxies:"), out)
	assert.Contains(t, out, "edge-1")
}

func TestAggregateCmd_SampleAsJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	out, err := execute(t, "aggregate", "--target", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"sample-node-1"`)
}

func TestAggregateCmd_CustomTemplate(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SELECT_GROUP", "Pick")
	t.Setenv("RULES", `["geoip,CN,DIRECT","MATCH,Pick"]`)
	out, err := execute(t, "aggregate", "--target", "json", "trojan://pw@1.2.3.4:443#edge-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"GEOIP,CN,DIRECT"`)
	assert.Contains(t, out, `"name": "Pick"`)
}

func TestAggregateCmd_InvalidRules(t *testing.T) {
	t.Setenv("RULES", "MATCH,DIRECT\nGEOIP,CN,DIRECT")
	_, err := execute(t, "aggregate", "vmess://x")
	require.ErrorContains(t, err, "RULES")
}

func TestAggregateCmd_UnknownTarget(t *testing.T) {
	_, err := execute(t, "aggregate", "--target", "surge")
	require.Error(t, err)
}

func TestNotifyCmd_NothingToCompare(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	out, err := execute(t, "notify")
	require.NoError(t, err)
	assert.Equal(t, "ran=false changed=false total=0 delta=+0 notified=false\n", out)
}

func TestCommands_MissingEnvFile(t *testing.T) {
	_, err := execute(t, "notify", "--env-file", "does-not-exist.env")
	require.Error(t, err)
}

func TestOpenStore_SQLite(t *testing.T) {
	a := &app{cfg: &config.Config{Store: config.StoreConfig{
		Driver: "sqlite3",
		DSN:    filepath.Join(t.TempDir(), "subagg.db"),
	}}}
	store, err := a.openStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k", "v", 0))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, isSweeper := store.(kv.Sweeper)
	assert.True(t, isSweeper)
}

func TestEvery_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 16)
	done := make(chan struct{})
	go func() {
		every(ctx, 5*time.Millisecond, func(context.Context) { calls <- struct{}{} })
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("fn was never called")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("every did not return after cancel")
	}
}
