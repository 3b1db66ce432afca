package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates Load from any .env in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:25500", cfg.Server.Addr())
	assert.Equal(t, 60*time.Second, cfg.Server.ConvertTimeout)
	assert.Equal(t, 15*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, int64(5*1024*1024), cfg.Sources.MaxBytes)
	assert.Equal(t, 4, cfg.Sources.Concurrency)
	assert.Equal(t, 100, cfg.RateLimit.PerMinute)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "subagg", cfg.Notify.Title)
	assert.Zero(t, cfg.Notify.Interval)
	assert.False(t, cfg.Notify.TelegramEnabled())
	assert.Equal(t, "回国", cfg.Template.SelectGroup)

	rules, err := cfg.Template.RuleList()
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestTemplate_RuleList(t *testing.T) {
	tc := TemplateConfig{Rules: "geoip,CN,DIRECT\n# tail\nMATCH,Fallback"}
	got, err := tc.RuleList()
	require.NoError(t, err)
	assert.Equal(t, []string{"GEOIP,CN,DIRECT", "MATCH,Fallback"}, got)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("MAIN_TOKEN=from-file\nRATE_PER_MIN=7\n"), 0o600))
	t.Setenv("MAIN_TOKEN", "from-env")
	// godotenv writes into the process environment; restore after the test.
	t.Setenv("RATE_PER_MIN", "")
	require.NoError(t, os.Unsetenv("RATE_PER_MIN"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.MainToken)
	assert.Equal(t, 7, cfg.RateLimit.PerMinute)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load("nope.env")
	assert.Error(t, err)
}

func TestLoad_BadValue(t *testing.T) {
	chdirTemp(t)
	t.Setenv("FETCH_TIMEOUT", "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, "sources")
}

func TestParseSources(t *testing.T) {
	got, err := ParseSources(`["https://a/sub", " ", "vmess://x"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a/sub", "vmess://x"}, got)

	got, err = ParseSources(" https://a/sub , ,https://b/sub ")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a/sub", "https://b/sub"}, got)

	got, err = ParseSources("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseSources(`["unterminated`)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		chdirTemp(t)
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(c *Config){
		"bad port":          func(c *Config) { c.Server.Port = 0 },
		"bad sources":       func(c *Config) { c.Sources.Default = "[1,2]" },
		"unknown driver":    func(c *Config) { c.Store.Driver = "mysql" },
		"redis needs addr":  func(c *Config) { c.Store.Driver = "redis" },
		"sqlite needs dsn":  func(c *Config) { c.Store.Driver = "sqlite3" },
		"telegram half set": func(c *Config) { c.Notify.TelegramBotToken = "t" },
		"bad level":         func(c *Config) { c.Log.Level = "loud" },
		"bad format":        func(c *Config) { c.Log.Format = "xml" },
		"zero max bytes":    func(c *Config) { c.Sources.MaxBytes = 0 },
		"blank group":       func(c *Config) { c.Template.SelectGroup = " " },
		"bad rule":          func(c *Config) { c.Template.Rules = "DST-PORT,443,DIRECT" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid(t)
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid(t)
	c.Store.Driver = "redis"
	c.Store.RedisAddr = "127.0.0.1:6379"
	assert.NoError(t, c.Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lc := LogConfig{Level: "warn", Format: "json"}
	log := lc.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
