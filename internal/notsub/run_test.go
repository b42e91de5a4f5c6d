package notsub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "restaurant-system/internal/xpkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParams(t *testing.T) {
	t.Setenv("BROKER", "")

	p, err := parseParams([]string{"--workers=8", "--config-path", writeConfig(t, "broker: rabbitmq\n")})
	require.NoError(t, err)
	assert.Equal(t, 8, p.workers)
	require.NoError(t, validateParams(p))
	assert.Equal(t, "notifications_queue", p.cfg.RMQ.Queue)

	_, err = parseParams([]string{"--help"})
	assert.True(t, errors.Is(err, xerrors.ErrHelp))

	p, err = parseParams([]string{"--config-path", writeConfig(t, "broker: none\n")})
	require.NoError(t, err)
	assert.Error(t, validateParams(p))

	p, err = parseParams([]string{"--workers=0"})
	require.NoError(t, err)
	assert.Error(t, validateParams(p))
}
