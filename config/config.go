// Package config loads bmd's runtime configuration: listen address,
// peer seeds, proof-of-work difficulty parameters, the minimum
// acceptable protocol version, data directory, and log level. Flags
// are declared on a cobra command and bound into viper so a config
// file, environment variables, and flags all resolve through one
// value, the pattern the pkg/config loader in the example pack uses.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the unified runtime configuration for a node.
type Config struct {
	Network struct {
		ListenAddr     string   `mapstructure:"listen_addr"`
		Seeds          []string `mapstructure:"seeds"`
		Streams        []uint64 `mapstructure:"streams"`
		CurrentVersion uint32   `mapstructure:"current_version"`
		UseTestNet     bool     `mapstructure:"use_testnet"`
		SocksProxy     string   `mapstructure:"socks_proxy"`
	} `mapstructure:"network"`

	ProofOfWork struct {
		NonceTrialsPerByte uint64 `mapstructure:"nonce_trials_per_byte"`
		ExtraBytes         uint64 `mapstructure:"extra_bytes"`
	} `mapstructure:"proof_of_work"`

	Storage struct {
		DataDir   string `mapstructure:"data_dir"`
		UseBadger bool   `mapstructure:"use_badger"`
		SyncOnce  bool   `mapstructure:"sync_once"`
	} `mapstructure:"storage"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// defaults mirror the Bitmessage reference client's own network-wide
// constants (§6's NETWORK_NONCE_TRIALS_PER_BYTE / NETWORK_EXTRA_BYTES).
const (
	defaultNonceTrialsPerByte = 1000
	defaultExtraBytes         = 1000
	defaultCurrentVersion     = 3
)

// BindFlags declares bmd's flags on cmd and binds each to viper under
// its mapstructure key, so flags/env/config-file all resolve through
// one Config value on Load.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String("listen", ":8444", "address to listen for inbound peer connections on")
	flags.StringSlice("seed", nil, "seed peer address (repeatable)")
	flags.UintSlice("stream", []uint{1}, "stream number to serve (repeatable)")
	flags.Uint32("current-version", defaultCurrentVersion, "minimum acceptable peer protocol version")
	flags.Bool("testnet", false, "use the Bitmessage test network magic")
	flags.String("socks-proxy", "", "SOCKS proxy address for outbound connections, e.g. 127.0.0.1:9050")

	flags.Uint64("pow-trials-per-byte", defaultNonceTrialsPerByte, "network proof-of-work trials per byte")
	flags.Uint64("pow-extra-bytes", defaultExtraBytes, "network proof-of-work extra-bytes padding")

	flags.String("datadir", "./bmd-data", "directory for on-disk inventory and peer address persistence")
	flags.Bool("badger", false, "use the embedded badger-backed inventory store instead of the in-memory one")
	flags.Bool("sync-once", false, "dial each seed in sync mode to catch up, without an inbound listener, then exit")

	flags.String("log-level", "info", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("network.listen_addr", flags.Lookup("listen"))
	_ = viper.BindPFlag("network.seeds", flags.Lookup("seed"))
	_ = viper.BindPFlag("network.streams", flags.Lookup("stream"))
	_ = viper.BindPFlag("network.current_version", flags.Lookup("current-version"))
	_ = viper.BindPFlag("network.use_testnet", flags.Lookup("testnet"))
	_ = viper.BindPFlag("network.socks_proxy", flags.Lookup("socks-proxy"))

	_ = viper.BindPFlag("proof_of_work.nonce_trials_per_byte", flags.Lookup("pow-trials-per-byte"))
	_ = viper.BindPFlag("proof_of_work.extra_bytes", flags.Lookup("pow-extra-bytes"))

	_ = viper.BindPFlag("storage.data_dir", flags.Lookup("datadir"))
	_ = viper.BindPFlag("storage.use_badger", flags.Lookup("badger"))
	_ = viper.BindPFlag("storage.sync_once", flags.Lookup("sync-once"))

	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
}

// Load reads an optional config file (bmd.yaml, searched under
// configPath and the working directory), merges in environment
// variables prefixed BMD_, and unmarshals the result into a Config.
// Flags bound via BindFlags take precedence over both.
func Load(configPath string) (*Config, error) {
	viper.SetConfigName("bmd")
	viper.SetConfigType("yaml")
	if configPath != "" {
		viper.AddConfigPath(configPath)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("bmd")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
