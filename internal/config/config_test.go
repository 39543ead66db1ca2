package config_test

import (
	"testing"
	"time"

	"github.com/dom/deception-server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, 24, cfg.JWTExpirationHours)
	assert.Equal(t, 15*time.Second, cfg.StartCountdown)
	assert.Equal(t, 3, cfg.MaxRounds)
	assert.True(t, cfg.RedactSnapshots)
	assert.Empty(t, cfg.OTelEndpoint)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE", "memory")
	t.Setenv("START_COUNTDOWN", "2s")
	t.Setenv("MAX_ROUNDS", "5")
	t.Setenv("REDACT_SNAPSHOTS", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 2*time.Second, cfg.StartCountdown)
	assert.Equal(t, 5, cfg.MaxRounds)
	assert.False(t, cfg.RedactSnapshots)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env:  map[string]string{"JWT_SECRET": ""},
		},
		{
			name: "unknown store",
			env:  map[string]string{"JWT_SECRET": "secret", "STORE": "redis"},
		},
		{
			name: "zero rounds",
			env:  map[string]string{"JWT_SECRET": "secret", "MAX_ROUNDS": "0"},
		},
		{
			name: "malformed countdown",
			env:  map[string]string{"JWT_SECRET": "secret", "START_COUNTDOWN": "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
