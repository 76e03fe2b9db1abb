package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/flashdb/redisproxy/internal/config"
	"github.com/flashdb/redisproxy/pkg/proxy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T) (*miniredis.Miniredis, *proxy.Proxy) {
	t.Helper()
	m := miniredis.RunT(t)
	port, err := strconv.Atoi(m.Port())
	require.NoError(t, err)

	p := proxy.New()
	require.NoError(t, p.Connect(m.Host(), port))
	t.Cleanup(p.Close)
	return m, p
}

func runOK(t *testing.T, p *proxy.Proxy, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	ok, err := run(p, args, &out)
	require.NoError(t, err)
	require.True(t, ok, "output: %s", out.String())
	return out.String()
}

func TestRun_SetGet(t *testing.T) {
	m, p := setupCLI(t)

	assert.Equal(t, "OK\n", runOK(t, p, "set", "greeting", "hello world"))
	assert.Equal(t, "OK \"hello world\"\n", runOK(t, p, "GET", "greeting"))

	stored, err := m.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", stored)
}

func TestRun_MissingKeyIsNotOK(t *testing.T) {
	_, p := setupCLI(t)

	var out bytes.Buffer
	ok, err := run(p, []string{"get", "absent"}, &out)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "NOT_FOUND\n", out.String())

	out.Reset()
	ok, _ = run(p, []string{"exists", "absent"}, &out)
	assert.False(t, ok)
	assert.Equal(t, "NO\n", out.String())
}

func TestRun_Counters(t *testing.T) {
	_, p := setupCLI(t)

	assert.Equal(t, "OK 1\n", runOK(t, p, "incr", "hits"))
	assert.Equal(t, "OK 2\n", runOK(t, p, "incr", "hits"))
	assert.Equal(t, "OK\n", runOK(t, p, "del", "hits"))
}

func TestRun_ListsAndSortedSets(t *testing.T) {
	_, p := setupCLI(t)

	runOK(t, p, "rpush", "q", "a")
	runOK(t, p, "rpush", "q", "b")
	assert.Equal(t, "OK\n1) \"a\"\n2) \"b\"\n", runOK(t, p, "lrange", "q", "0", "-1"))

	runOK(t, p, "zadd", "board", "3", "x")
	assert.Equal(t, "OK 5\n", runOK(t, p, "zincr", "board", "2", "x"))
	assert.Equal(t, "OK\n1) \"x\" 5\n", runOK(t, p, "zrange", "board", "0", "-1", "withscores"))
}

func TestRun_PingAndRaw(t *testing.T) {
	m, p := setupCLI(t)

	assert.Equal(t, "PONG\n", runOK(t, p, "ping"))

	assert.Equal(t, "(integer) 1\n", runOK(t, p, "raw", "hset", "h", "f", "v"))
	assert.Equal(t, "v", m.HGet("h", "f"))
}

func TestRun_UsageErrors(t *testing.T) {
	_, p := setupCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown op", []string{"frobnicate"}},
		{"missing argument", []string{"set", "k"}},
		{"extra argument", []string{"get", "a", "b"}},
		{"bad integer", []string{"lrange", "q", "zero", "-1"}},
		{"bad seconds", []string{"setex", "k", "-5", "v"}},
		{"raw without command", []string{"raw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := run(p, tt.args, &out)
			assert.False(t, ok)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRun_ServerErrorIsReported(t *testing.T) {
	m, p := setupCLI(t)
	require.NoError(t, m.Set("plain", "v"))

	var out bytes.Buffer
	ok, err := run(p, []string{"lpush", "plain", "x"}, &out)
	assert.False(t, ok)
	var serverErr *proxy.ServerError
	assert.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "ERR\n", out.String())
}

func TestResolve_LayersAndWritesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redisproxy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"host": "file-host", "port": 7000, "retry_count": 2}`), 0644))
	t.Setenv(config.EnvPort, "7001")
	t.Setenv(config.EnvTimeoutMS, "250")

	cfg, err := resolve(path, func(c *config.Config) { c.RetryCount = 5 })
	require.NoError(t, err)
	assert.Equal(t, "file-host", cfg.Host)
	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, uint(5), cfg.RetryCount)
	assert.Equal(t, int64(250), cfg.TimeoutMS)

	out := filepath.Join(dir, "written.json")
	require.NoError(t, cfg.Save(out))
	written, err := config.Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, written)
}

func TestResolve_Invalid(t *testing.T) {
	_, err := resolve(filepath.Join(t.TempDir(), "absent.json"), func(c *config.Config) { c.Port = 0 })
	assert.ErrorIs(t, err, config.ErrInvalid)
}
