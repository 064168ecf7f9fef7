package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  driver: sqlite
  dsn: "file::memory:?cache=shared"
nats:
  url: nats://localhost:4222
governance:
  founders: [alice, bob, carol]
  reference_monday: "2024-01-01"
  time_zone: America/Chicago
  rating_mode: legacy
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr bool
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name: "yaml with defaults",
			body: sampleYAML,
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverSQLite, cfg.Database.Driver)
				assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Governance.Founders)
				assert.Equal(t, 18, cfg.Governance.QualificationThreshold)
				assert.Equal(t, RatingModeLegacy, cfg.Governance.RatingMode)
				assert.Equal(t, ":8080", cfg.HTTP.Address)
				assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
				assert.Equal(t, time.Hour, cfg.Queue.ReconcileInterval)
			},
		},
		{
			name: "env overrides yaml",
			body: sampleYAML,
			env: map[string]string{
				"NATS_URL":                           "nats://bus:4222",
				"GOVERNANCE_FOUNDERS":                "dave,erin",
				"GOVERNANCE_QUALIFICATION_THRESHOLD": "12",
				"REDIS_URL":                          "redis://cache:6379/0",
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
				assert.Equal(t, []string{"dave", "erin"}, cfg.Governance.Founders)
				assert.Equal(t, 12, cfg.Governance.QualificationThreshold)
				assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
			},
		},
		{
			name: "reference date must be a monday",
			body: `
governance:
  founders: [alice]
  reference_monday: "2024-01-02"
`,
			wantErr: true,
		},
		{
			name: "duplicate founders rejected",
			body: `
governance:
  founders: [alice, alice]
  reference_monday: "2024-01-01"
`,
			wantErr: true,
		},
		{
			name: "founder ids cannot contain the team separator",
			body: `
governance:
  founders: [alice, "bob:carol"]
  reference_monday: "2024-01-01"
`,
			wantErr: true,
		},
		{
			name:    "founder separator via env",
			body:    sampleYAML,
			env:     map[string]string{"GOVERNANCE_FOUNDERS": "dave,erin:frank"},
			wantErr: true,
		},
		{
			name: "founders required",
			body: `
governance:
  reference_monday: "2024-01-01"
`,
			wantErr: true,
		},
		{
			name: "unknown rating mode",
			body: `
governance:
  founders: [alice]
  reference_monday: "2024-01-01"
  rating_mode: windowed
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(writeConfig(t, tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("GOVERNANCE_FOUNDERS", "alice,bob")
	t.Setenv("GOVERNANCE_REFERENCE_MONDAY", "2024-01-01")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/club")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/club", cfg.Database.DSN)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Governance.Founders)
}

func TestGovernanceConfig_ReferenceDate(t *testing.T) {
	g := GovernanceConfig{ReferenceMonday: "2024-01-01", TimeZone: "UTC"}
	loc, err := g.Location()
	require.NoError(t, err)

	ref, err := g.ReferenceDate(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, ref.Weekday())
	assert.Equal(t, 2024, ref.Year())
}
