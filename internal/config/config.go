package config

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/doocho/usdc-whale-detector/internal/model"
)

// Chain describes one monitored network.
type Chain struct {
	Name     string `mapstructure:"name"`
	RPCURL   string `mapstructure:"rpc_url"`
	Contract string `mapstructure:"contract"`
	Decimals uint8  `mapstructure:"decimals"`
	Token    string `mapstructure:"token"`
	Explorer string `mapstructure:"explorer"`
}

// Backoff holds reconnect delay bounds.
type Backoff struct {
	Initial time.Duration `mapstructure:"initial"`
	Max     time.Duration `mapstructure:"max"`
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Chains       []Chain
	ThresholdUSD uint64
	PollInterval time.Duration
	Backoff      Backoff
	LabelsPath   string
	LogLevel     string
	MetricsAddr  string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WHALEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("threshold-usd", uint64(1_000_000))
	v.SetDefault("poll-interval", 3*time.Second)
	v.SetDefault("backoff.initial", time.Second)
	v.SetDefault("backoff.max", 30*time.Second)
	v.SetDefault("labels", "./data/labels.json")
	v.SetDefault("log-level", "info")
	v.SetDefault("metrics-addr", "")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var chains []Chain
	if v.IsSet("chains") {
		if err := v.UnmarshalKey("chains", &chains); err != nil {
			return Config{}, fmt.Errorf("parse chains: %w", err)
		}
	}
	if len(chains) == 0 {
		chains = DefaultChains()
	}

	cfg := Config{
		Chains:       chains,
		ThresholdUSD: v.GetUint64("threshold-usd"),
		PollInterval: v.GetDuration("poll-interval"),
		Backoff: Backoff{
			Initial: v.GetDuration("backoff.initial"),
			Max:     v.GetDuration("backoff.max"),
		},
		LabelsPath:  v.GetString("labels"),
		LogLevel:    v.GetString("log-level"),
		MetricsAddr: v.GetString("metrics-addr"),
	}

	return cfg, nil
}

// DefaultChains returns the built-in chain set: USDC on Ethereum,
// Arbitrum One, and Base.
func DefaultChains() []Chain {
	return []Chain{
		{
			Name:     "Ethereum",
			RPCURL:   "https://eth.llamarpc.com",
			Contract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			Decimals: 6,
			Token:    "USDC",
			Explorer: "https://etherscan.io/tx/",
		},
		{
			Name:     "Arbitrum",
			RPCURL:   "https://arb1.arbitrum.io/rpc",
			Contract: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
			Decimals: 6,
			Token:    "USDC",
			Explorer: "https://arbiscan.io/tx/",
		},
		{
			Name:     "Base",
			RPCURL:   "https://mainnet.base.org",
			Contract: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			Decimals: 6,
			Token:    "USDC",
			Explorer: "https://basescan.org/tx/",
		},
	}
}

// Validate checks the chain configuration at startup.
func (c Chain) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &model.ConfigurationError{Chain: c.Name, Reason: "name is required"}
	}
	if c.RPCURL == "" {
		return &model.ConfigurationError{Chain: c.Name, Reason: "rpc_url is required"}
	}
	u, err := url.Parse(c.RPCURL)
	if err != nil {
		return &model.ConfigurationError{Chain: c.Name, Reason: fmt.Sprintf("invalid rpc_url: %v", err)}
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return &model.ConfigurationError{Chain: c.Name, Reason: fmt.Sprintf("unsupported rpc_url scheme %q", u.Scheme)}
	}
	if !common.IsHexAddress(c.Contract) {
		return &model.ConfigurationError{Chain: c.Name, Reason: fmt.Sprintf("invalid contract address %q", c.Contract)}
	}
	if c.Decimals > 30 {
		return &model.ConfigurationError{Chain: c.Name, Reason: fmt.Sprintf("decimals %d out of range", c.Decimals)}
	}
	if c.Token == "" {
		return &model.ConfigurationError{Chain: c.Name, Reason: "token symbol is required"}
	}
	return nil
}

// Address returns the parsed contract address.
func (c Chain) Address() common.Address {
	return common.HexToAddress(c.Contract)
}

// RawThreshold converts a whole-token USD threshold into base units
// using the chain's decimals.
func (c Chain) RawThreshold(thresholdUSD uint64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.Decimals)), nil)
	return new(big.Int).Mul(new(big.Int).SetUint64(thresholdUSD), scale)
}
