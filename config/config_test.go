package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"stakevault/crypto"
)

var (
	testAddrBytes = func() [20]byte {
		var addr [20]byte
		addr[0] = 0x42
		addr[len(addr)-1] = 0x24
		return addr
	}()
	testAddrString = crypto.MustNewAddress(crypto.VaultPrefix, testAddrBytes[:]).String()
)

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := fmt.Sprintf(`RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
ServiceEnv = "testnet"
RewardRatePerHour = 250000
CustodyAddress = "%s"
PausedModules = ["staking"]

[genesis]
"%s" = "1000000"
`, testAddrString, testAddrString)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9000" || cfg.DataDir != "./data" {
		t.Fatalf("unexpected addresses: %+v", cfg)
	}
	if cfg.RewardRatePerHour != 250000 {
		t.Fatalf("unexpected reward rate: %d", cfg.RewardRatePerHour)
	}
	if len(cfg.PausedModules) != 1 || cfg.PausedModules[0] != "staking" {
		t.Fatalf("unexpected paused modules: %v", cfg.PausedModules)
	}

	allocations, err := cfg.GenesisAllocations()
	if err != nil {
		t.Fatalf("genesis allocations: %v", err)
	}
	if allocations[testAddrString].String() != "1000000" {
		t.Fatalf("unexpected allocation: %v", allocations)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected default RPC address: %s", cfg.RPCAddress)
	}
	if cfg.RewardRatePerHour != 100_000 {
		t.Fatalf("unexpected default reward rate: %d", cfg.RewardRatePerHour)
	}
	if _, err := cfg.Custody(); err != nil {
		t.Fatalf("default custody address invalid: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not persisted: %v", err)
	}

	// A second load must return the persisted file, custody included.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if again.CustodyAddress != cfg.CustodyAddress {
		t.Fatalf("custody address changed across loads")
	}
}

func TestLoadRejectsBadGenesisAmount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := fmt.Sprintf(`RPCAddress = ":8080"
DataDir = "./data"

[genesis]
"%s" = "-5"
`, testAddrString)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for negative genesis amount")
	}
}

func TestLoadRejectsBadCustodyAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = ":8080"
DataDir = "./data"
CustodyAddress = "not-an-address"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid custody address")
	}
}
