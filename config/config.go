package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"stakevault/crypto"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration loaded from TOML.
type Config struct {
	RPCAddress        string `toml:"RPCAddress"`
	DataDir           string `toml:"DataDir"`
	ServiceEnv        string `toml:"ServiceEnv"`
	RewardRatePerHour uint64 `toml:"RewardRatePerHour"`
	// CustodyAddress holds both token custody accounts. Generated on first
	// start when absent.
	CustodyAddress string `toml:"CustodyAddress"`
	// PausedModules lists native modules whose mutations are rejected.
	PausedModules []string `toml:"PausedModules"`
	// Genesis maps bech32 addresses to initial stake-token balances
	// (decimal wei strings), minted once on an empty data directory.
	Genesis map[string]string `toml:"genesis"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./stakevault-data"
	}
	if cfg.RewardRatePerHour == 0 {
		cfg.RewardRatePerHour = 100_000
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the address and genesis allocation fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CustodyAddress) != "" {
		if _, err := crypto.DecodeAddress(c.CustodyAddress); err != nil {
			return fmt.Errorf("config: invalid custody address: %w", err)
		}
	}
	for addr, amount := range c.Genesis {
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("config: invalid genesis address %q: %w", addr, err)
		}
		value, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok || value.Sign() <= 0 {
			return fmt.Errorf("config: invalid genesis amount %q for %s", amount, addr)
		}
	}
	return nil
}

// Custody decodes the configured custody address.
func (c *Config) Custody() (crypto.Address, error) {
	return crypto.DecodeAddress(c.CustodyAddress)
}

// GenesisAllocations returns the parsed genesis balances. Validate must have
// accepted the config first.
func (c *Config) GenesisAllocations() (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(c.Genesis))
	for addr, amount := range c.Genesis {
		value, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok {
			return nil, fmt.Errorf("config: invalid genesis amount %q for %s", amount, addr)
		}
		out[addr] = value
	}
	return out, nil
}

// createDefault creates and saves a default configuration file, generating a
// fresh custody account.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:        ":8080",
		DataDir:           "./stakevault-data",
		ServiceEnv:        "local",
		RewardRatePerHour: 100_000,
		CustodyAddress:    key.PubKey().Address().String(),
		PausedModules:     []string{},
		Genesis:           map[string]string{},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
