package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
listen_addr: ":8545"
deployer_address: "0x00000000000000000000000000000000000D0D0D"
owner: "0x00000000000000000000000000000000000A11CE"
weth: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
pool_factory_address: "0x1F98431c8aD98523631AE4a59f267346ea31F984"
position_manager_address: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
locker_factory_address: "0x00000000000000000000000000000000000010C0"
tax_collector: "0x000000000000000000000000000000000000FEE5"
lock_duration_seconds: 86400
protocol_fee: 50
salt_iteration_cap: 100000
`

func TestLoadConfig(t *testing.T) {
	t.Run("parses a full config", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, ":8545", cfg.ListenAddr)
		assert.Equal(t, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), cfg.WETH)
		assert.Equal(t, common.HexToAddress("0x000000000000000000000000000000000000FEE5"), cfg.TaxCollector)
		assert.Equal(t, uint64(86400), cfg.LockDurationSeconds)
		assert.Equal(t, uint64(50), cfg.ProtocolFee)
		assert.Equal(t, uint64(100000), cfg.SaltIterationCap)
	})

	t.Run("tax collector defaults to the owner", func(t *testing.T) {
		body := `
listen_addr: ":8545"
deployer_address: "0x00000000000000000000000000000000000D0D0D"
owner: "0x00000000000000000000000000000000000A11CE"
weth: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
pool_factory_address: "0x1F98431c8aD98523631AE4a59f267346ea31F984"
position_manager_address: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
locker_factory_address: "0x00000000000000000000000000000000000010C0"
`
		cfg, err := LoadConfig(writeConfig(t, body))
		require.NoError(t, err)
		assert.Equal(t, cfg.Owner, cfg.TaxCollector)
	})

	t.Run("rejects a missing required address", func(t *testing.T) {
		body := `
listen_addr: ":8545"
owner: "0x00000000000000000000000000000000000A11CE"
weth: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
`
		_, err := LoadConfig(writeConfig(t, body))
		assert.ErrorContains(t, err, "deployer_address")
	})

	t.Run("rejects a malformed address", func(t *testing.T) {
		body := validConfig + "\nweth: \"not-an-address\"\n"
		_, err := LoadConfig(writeConfig(t, body))
		assert.ErrorContains(t, err, "weth")
	})

	t.Run("rejects a missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "read config")
	})
}
