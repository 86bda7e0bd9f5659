package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SWAPDESK_RPC.
const EnvPrefix = "SWAPDESK"

// SepoliaChainID is the default member of the network allowlist.
const SepoliaChainID uint64 = 11155111

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL        string
	AllowedChains []uint64
	PrivateKey    string

	Router      string
	PoolManager string
	StateView   string
	Hooks       string

	Fee             uint32
	SlippagePercent float64

	GasLimit       uint64
	GasPrice       string
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
	AssumeYes      bool

	Out    string
	PGDSN  string
	Listen string

	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration

	LogLevel string
}

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chains", []string{strconv.FormatUint(SepoliaChainID, 10)})
	v.SetDefault("pool-manager", "0xE03A1074c86CFeDd5C142C4F04F1a1536e203543")
	v.SetDefault("state-view", "0xE1Dd9c3fA50EDB962E442f60DfBc432e24537E4C")
	v.SetDefault("fee", 3000)
	v.SetDefault("slippage", 0.5)
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("receipt-timeout", 3*time.Minute)
	v.SetDefault("out", "./data/swaps.jsonl")
	v.SetDefault("listen", ":8080")
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

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

	chains, err := parseChainIDs(getStringSlice(v, "chains"))
	if err != nil {
		return Config{}, err
	}
	fee := v.GetUint64("fee")
	if fee >= 1<<24 {
		return Config{}, fmt.Errorf("fee %d does not fit in 24 bits", fee)
	}
	slippage := v.GetFloat64("slippage")
	if slippage < 0 || slippage > 100 {
		return Config{}, fmt.Errorf("slippage %.4f outside 0..100", slippage)
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		AllowedChains:   chains,
		PrivateKey:      v.GetString("private-key"),
		Router:          v.GetString("router"),
		PoolManager:     v.GetString("pool-manager"),
		StateView:       v.GetString("state-view"),
		Hooks:           v.GetString("hooks"),
		Fee:             uint32(fee),
		SlippagePercent: slippage,
		GasLimit:        v.GetUint64("gas-limit"),
		GasPrice:        v.GetString("gas-price"),
		PollInterval:    v.GetDuration("poll-interval"),
		ReceiptTimeout:  v.GetDuration("receipt-timeout"),
		AssumeYes:       v.GetBool("yes"),
		Out:             v.GetString("out"),
		PGDSN:           v.GetString("pg-dsn"),
		Listen:          v.GetString("listen"),
		BatchSize:       v.GetUint64("batch-size"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}

func parseChainIDs(items []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseUint(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id %q: %w", item, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
