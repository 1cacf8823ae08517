// Package config loads the launcher daemon configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// LauncherConfig is the daemon's parsed configuration.
type LauncherConfig struct {
	// ListenAddr serves JSON-RPC and /metrics.
	ListenAddr string

	// DeployerAddress is the orchestrator's own address, the CREATE2
	// creator of every launched token.
	DeployerAddress common.Address
	// Owner is the account allowed to mutate administrative state.
	Owner common.Address
	// WETH is the reference asset every pool pairs against.
	WETH common.Address

	PoolFactoryAddress     common.Address
	PositionManagerAddress common.Address
	LockerFactoryAddress   common.Address

	TaxCollector        common.Address
	LockDurationSeconds uint64
	ProtocolFee         uint64
	SaltIterationCap    uint64
}

// fileConfig is the raw YAML shape; addresses arrive as hex strings.
type fileConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	DeployerAddress string `yaml:"deployer_address"`
	Owner           string `yaml:"owner"`
	WETH            string `yaml:"weth"`

	PoolFactoryAddress     string `yaml:"pool_factory_address"`
	PositionManagerAddress string `yaml:"position_manager_address"`
	LockerFactoryAddress   string `yaml:"locker_factory_address"`

	TaxCollector        string `yaml:"tax_collector"`
	LockDurationSeconds uint64 `yaml:"lock_duration_seconds"`
	ProtocolFee         uint64 `yaml:"protocol_fee"`
	SaltIterationCap    uint64 `yaml:"salt_iteration_cap"`
}

// LoadConfig reads, parses and validates a LauncherConfig from path.
func LoadConfig(path string) (*LauncherConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if fc.ListenAddr == "" {
		return nil, errors.New("invalid config: listen_addr is required")
	}

	cfg := &LauncherConfig{
		ListenAddr:          fc.ListenAddr,
		LockDurationSeconds: fc.LockDurationSeconds,
		ProtocolFee:         fc.ProtocolFee,
		SaltIterationCap:    fc.SaltIterationCap,
	}

	required := []struct {
		key  string
		raw  string
		dest *common.Address
	}{
		{"deployer_address", fc.DeployerAddress, &cfg.DeployerAddress},
		{"owner", fc.Owner, &cfg.Owner},
		{"weth", fc.WETH, &cfg.WETH},
		{"pool_factory_address", fc.PoolFactoryAddress, &cfg.PoolFactoryAddress},
		{"position_manager_address", fc.PositionManagerAddress, &cfg.PositionManagerAddress},
		{"locker_factory_address", fc.LockerFactoryAddress, &cfg.LockerFactoryAddress},
	}
	for _, f := range required {
		addr, err := parseAddress(f.key, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dest = addr
	}

	// The collector may be left unset; fees then accrue to the owner.
	if fc.TaxCollector != "" {
		addr, err := parseAddress("tax_collector", fc.TaxCollector)
		if err != nil {
			return nil, err
		}
		cfg.TaxCollector = addr
	} else {
		cfg.TaxCollector = cfg.Owner
	}

	return cfg, nil
}

func parseAddress(key, raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, fmt.Errorf("invalid config: %s is required", key)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid config: %s is not a hex address: %q", key, raw)
	}
	return common.HexToAddress(raw), nil
}
