package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, env(nil), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BusLocal, cfg.Bus.Driver)
}

func TestLoadLayering(t *testing.T) {
	path := writeFile(t, `
addr: ":9000"
db: from-file.sqlite3
bus:
  driver: kafka
  kafka_brokers: ["k1:9092"]
stripe:
  currency: eur
`)

	cfg, err := Load(
		[]string{"--config", path, "-d", "from-flag.sqlite3"},
		env(map[string]string{
			"EVENTBOOKING_ADDR":          ":9100",
			"EVENTBOOKING_DB":            "from-env.sqlite3",
			"EVENTBOOKING_KAFKA_BROKERS": "k2:9092, k3:9092",
		}),
		io.Discard,
	)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Addr, "env beats file")
	assert.Equal(t, "from-flag.sqlite3", cfg.DBPath, "flag beats env")
	assert.Equal(t, BusKafka, cfg.Bus.Driver)
	assert.Equal(t, []string{"k2:9092", "k3:9092"}, cfg.Bus.KafkaBrokers)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.Equal(t, "eventbooking.bookings", cfg.Bus.KafkaTopic, "defaults survive a partial file")
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	path := writeFile(t, "admin_email: boss@example.com\n")
	cfg, err := Load(nil, env(map[string]string{"EVENTBOOKING_CONFIG": path}), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", cfg.AdminEmail)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "adress: typo\n")
	_, err := Load([]string{"-c", path}, env(nil), io.Discard)
	assert.Error(t, err)
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"-h"}, env(nil), io.Discard)
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

func TestLoadRejectsArguments(t *testing.T) {
	_, err := Load([]string{"extra"}, env(nil), io.Discard)
	assert.Error(t, err)
}

func TestLoadBadNumber(t *testing.T) {
	_, err := Load(nil, env(map[string]string{"EVENTBOOKING_BUS_QUEUE_SIZE": "lots"}), io.Discard)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"amqp without url", func(c *Config) { c.Bus.Driver = BusAMQP }, false},
		{"amqp with url", func(c *Config) { c.Bus.Driver = BusAMQP; c.Bus.AMQPURL = "amqp://localhost" }, true},
		{"kafka without brokers", func(c *Config) { c.Bus.Driver = BusKafka }, false},
		{"unknown driver", func(c *Config) { c.Bus.Driver = "carrier-pigeon" }, false},
		{"empty addr", func(c *Config) { c.Addr = "" }, false},
		{"zero realtime queue", func(c *Config) { c.Realtime.QueueSize = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
