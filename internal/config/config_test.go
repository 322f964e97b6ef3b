package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sikong32/mytodo/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mytodo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFile(t *testing.T) {
	path := writeFile(t, `
port: "9090"
store:
  driver: SQLite
tokens:
  secret-token: user-1
horizons:
  monthly: 3
palette:
  work: "#111111"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, defaultSQLitePath, cfg.Store.SQLitePath)
	assert.Equal(t, "user-1", cfg.Tokens["secret-token"])
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "ko", cfg.DefaultLocale)
	assert.Equal(t, 3, cfg.HorizonPolicy()[domain.PatternMonthly])

	palette := cfg.CategoryPalette()
	assert.Equal(t, "#111111", palette.ColorFor(domain.CategoryWork))
	assert.Equal(t, "#28a745", palette.ColorFor(domain.CategoryPersonal))
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "driver", body: "store:\n  driver: mongo\n", want: "unknown store driver"},
		{name: "timezone", body: "timezone: Mars/Olympus\n", want: "timezone"},
		{name: "horizon pattern", body: "horizons:\n  none: 1\n", want: "non-repeating"},
		{name: "horizon value", body: "horizons:\n  daily: 0\n", want: "must be positive"},
		{name: "palette", body: "palette:\n  chores: \"#000\"\n", want: "unknown category"},
		{name: "yaml", body: "port: [\n", want: "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":         "7000",
		"CORS_ORIGINS": "https://a.example, ,https://b.example",
		"STORE_DRIVER": "Memory",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.ApplyEnv(lookup, log.New(&buf, "", 0))

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Empty(t, buf.String(), "memory driver needs no DATABASE_URL")
}

func TestApplyEnv_WarnsOnDefaultDSN(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(string) (string, bool) { return "", false }, log.New(&buf, "", 0))
	assert.Contains(t, buf.String(), "WARN: DATABASE_URL not set")
}

func TestParseEnv(t *testing.T) {
	input := "\ufeff# comment\nexport PORT=9000\nDATABASE_URL=\"postgres://x\"\nNAME='quoted'\nBROKEN\n=novalue\n"
	got := map[string]string{}
	require.NoError(t, parseEnv(strings.NewReader(input), func(k, v string) { got[k] = v }))
	assert.Equal(t, map[string]string{
		"PORT":         "9000",
		"DATABASE_URL": "postgres://x",
		"NAME":         "quoted",
	}, got)
}
