package config

import (
	"encoding/json"
	"os"

	"dapp-wallet-tui/session"
	"dapp-wallet-tui/wallets"
)

// Page identifies a top-level view
type Page int

const (
	PageHome Page = iota
	PageApps
	PageBrowser
	PageWallets
	PageSettings
)

// RPCOverride pins one chain to a user-chosen RPC endpoint instead of
// the built-in public one
type RPCOverride struct {
	ChainID uint64 `json:"chain_id"`
	URL     string `json:"url"`
}

// Config represents the application configuration
type Config struct {
	Wallets      []wallets.Wallet `json:"wallets"`
	Apps         []session.App    `json:"apps"`
	RPCOverrides []RPCOverride    `json:"rpc_overrides"`
	Logger       bool             `json:"logger"`
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Wallets: []wallets.Wallet{
			{
				Kind:    wallets.KindViewOnly,
				Name:    "vitalik.eth",
				Address: "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
			},
		},
		Apps:   []session.App{},
		Logger: false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist, create default
		cfg := DefaultConfig()
		Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, return default
		return DefaultConfig()
	}

	return cfg
}
