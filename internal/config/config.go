package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	Network     string // NEAR network name, e.g. "testnet" or "mainnet"
	BotToken    string
	BotName     string
	Contract    string // order-exchange contract account id
	ServerURL   string // public base URL of the wallet-callback listener
	ExplorerURL string
	Port        string
	QuoteToken  string // token the bot quotes prices in (USDT)
}

// LoadFromEnv loads configuration from environment variables.
// Every variable is required; a missing one is a startup failure.
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	vars := []struct {
		name string
		dst  *string
	}{
		{"NETWORK", &config.Network},
		{"BOT_TOKEN", &config.BotToken},
		{"BOT_NAME", &config.BotName},
		{"CONTRACT", &config.Contract},
		{"SERVER_URL", &config.ServerURL},
		{"EXPLORER_URL", &config.ExplorerURL},
		{"PORT", &config.Port},
		{"USDT_TOKEN_ADDRESS", &config.QuoteToken},
	}

	for _, v := range vars {
		*v.dst = os.Getenv(v.name)
		if *v.dst == "" {
			return nil, fmt.Errorf("%s is required", v.name)
		}
	}

	return config, nil
}

// RPCURL returns the JSON-RPC endpoint for the configured network.
func (c *Config) RPCURL() string {
	return fmt.Sprintf("https://rpc.%s.near.org", c.Network)
}

// HelperURL returns the indexer helper endpoint for the configured network.
func (c *Config) HelperURL() string {
	return fmt.Sprintf("https://helper.%s.near.org", c.Network)
}

// WalletURL returns the web-wallet base URL for the configured network.
func (c *Config) WalletURL() string {
	return fmt.Sprintf("https://wallet.%s.near.org", c.Network)
}

// DeepLink returns the t.me link the wallet redirects back to.
func (c *Config) DeepLink() string {
	return fmt.Sprintf("https://t.me/%s", c.BotName)
}
