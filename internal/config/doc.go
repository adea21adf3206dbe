// Package config provides the configuration for candleterm.
//
// Configuration is resolved in layers, later layers overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (cmd/candleterm)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← CANDLETERM_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← config.toml or config.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Basic Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//		return err
//	}
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// # File Format
//
//	[refresh]
//	interval = "15s"
//	timeout = "10s"
//
//	[source]
//	kind = "command"
//	command = "chartgen"
//	args = ["--symbol", "BTCUSD"]
//
//	[render]
//	on_error = "keep"
package config
