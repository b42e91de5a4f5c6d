package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
database:
  host: db.internal
  port: "6432"
  user: waiter
  password: secret
  database: dining
  lock_timeout_ms: 1500
rabbitmq:
  host: mq.internal
  vhost: restaurant
broker: rabbitmq
logging:
  level: DEBUG
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "db.internal", cfg.DB.Host)
	require.Equal(t, "6432", cfg.DB.Port)
	require.Equal(t, 1500, cfg.DB.LockTimeoutMS)
	require.Equal(t, int32(10), cfg.DB.MaxConns)
	require.Equal(t, "restaurant", cfg.RMQ.VHost)
	require.Equal(t, "notifications_fanout", cfg.RMQ.Exchange)
	require.Equal(t, "DEBUG", cfg.Logging.Level)
	require.Equal(t, "order_status_updates", cfg.Kafka.Topic)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BROKER", "kafka")

	cfg, err := Parse([]byte("database:\n  host: from-file\n"))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.DB.Host)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, BrokerKafka, cfg.Broker)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown broker", "broker: carrier-pigeon\n"},
		{"kafka without brokers", "broker: kafka\n"},
		{"negative lock timeout", "database:\n  lock_timeout_ms: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}
