package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the daemon configuration stored as TOML next to the data
// directory. Amounts are decimal strings in base units.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	DataDir        string `toml:"DataDir"`
	AdminAddress   string `toml:"AdminAddress"`
	MintPrice      string `toml:"MintPrice"`
	PlaceholderURI string `toml:"PlaceholderURI"`
	Environment    string `toml:"Environment"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./promptmint-data"
	}
	if strings.TrimSpace(cfg.MintPrice) == "" {
		cfg.MintPrice = "0"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
}

func validate(cfg *Config) error {
	if addr := strings.TrimSpace(cfg.AdminAddress); addr != "" && !common.IsHexAddress(addr) {
		return fmt.Errorf("config: AdminAddress %q is not a valid hex address", addr)
	}
	if _, err := cfg.MintPriceBig(); err != nil {
		return err
	}
	return nil
}

// MintPriceBig parses the configured per-token price.
func (c *Config) MintPriceBig() (*big.Int, error) {
	trimmed := strings.TrimSpace(c.MintPrice)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	price, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || price.Sign() < 0 {
		return nil, fmt.Errorf("config: MintPrice %q is not a non-negative decimal", c.MintPrice)
	}
	return price, nil
}

// AdminAddressBytes returns the configured admin address, or false when none
// is set.
func (c *Config) AdminAddressBytes() ([20]byte, bool) {
	var out [20]byte
	trimmed := strings.TrimSpace(c.AdminAddress)
	if trimmed == "" || !common.IsHexAddress(trimmed) {
		return out, false
	}
	copy(out[:], common.HexToAddress(trimmed).Bytes())
	return out, true
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
