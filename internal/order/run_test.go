package order

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/xpkg/config"

	xerrors "restaurant-system/internal/xpkg/errors"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"--port", "8081", "--store=memory", "--config-path", "x.yaml"})
	require.NoError(t, err)
	assert.Equal(t, 8081, p.orderParams.Port)
	assert.Equal(t, core.StoreMemory, p.orderParams.Store)
	assert.False(t, p.orderParams.Migrate)
	assert.Equal(t, "x.yaml", p.configPath)

	p, err = parseParams(nil)
	require.NoError(t, err)
	assert.Equal(t, 3000, p.orderParams.Port)
	assert.Equal(t, core.StorePostgres, p.orderParams.Store)

	_, err = parseParams([]string{"--help"})
	assert.True(t, errors.Is(err, xerrors.ErrHelp))

	_, err = parseParams([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestValidateParams(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("broker: kafka\nkafka:\n  brokers: [\"localhost:9092\"]\n"), 0o600))

	valid := func(store string) *params {
		return &params{
			orderParams: &core.OrderParams{Port: 3000, Store: store},
			configPath:  cfgPath,
		}
	}

	p := valid(core.StorePostgres)
	require.NoError(t, validateParams(p))
	assert.Equal(t, config.BrokerKafka, p.cfg.Broker)

	p = valid(core.StoreMemory)
	p.configPath = filepath.Join(dir, "missing.yaml")
	t.Setenv("BROKER", "")
	require.NoError(t, validateParams(p))
	assert.Equal(t, config.BrokerNone, p.cfg.Broker)

	p = valid(core.StorePostgres)
	p.configPath = filepath.Join(dir, "missing.yaml")
	assert.Error(t, validateParams(p))

	p = valid(core.StoreMemory)
	p.orderParams.Migrate = true
	assert.Error(t, validateParams(p))

	p = valid("sqlite")
	assert.Error(t, validateParams(p))

	for _, port := range []int{0, -1, 65536} {
		p = valid(core.StorePostgres)
		p.orderParams.Port = port
		assert.Error(t, validateParams(p), port)
	}
}
