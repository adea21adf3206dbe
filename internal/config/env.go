package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CANDLETERM_"

// LookupFunc looks up an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// envSetting binds one environment variable to a config field.
type envSetting struct {
	name string
	set  func(c *Config, value string) error
}

func envSettings() []envSetting {
	return []envSetting{
		{"REFRESH_INTERVAL", func(c *Config, v string) error { return c.Refresh.Interval.UnmarshalText([]byte(v)) }},
		{"REFRESH_TIMEOUT", func(c *Config, v string) error { return c.Refresh.Timeout.UnmarshalText([]byte(v)) }},
		{"MARGIN_VERTICAL", intSetter(func(c *Config) *int { return &c.Layout.MarginVertical })},
		{"MARGIN_HORIZONTAL", intSetter(func(c *Config) *int { return &c.Layout.MarginHorizontal })},
		{"SOURCE_KIND", stringSetter(func(c *Config) *string { return &c.Source.Kind })},
		{"SOURCE_PATH", stringSetter(func(c *Config) *string { return &c.Source.Path })},
		{"SOURCE_COMMAND", stringSetter(func(c *Config) *string { return &c.Source.Command })},
		{"SOURCE_ARGS", func(c *Config, v string) error {
			c.Source.Args = strings.Fields(v)
			return nil
		}},
		{"SOURCE_WATCH", boolSetter(func(c *Config) *bool { return &c.Source.Watch })},
		{"RENDER_ON_ERROR", stringSetter(func(c *Config) *string { return &c.Render.OnError })},
		{"RENDER_STATUS_LINE", boolSetter(func(c *Config) *bool { return &c.Render.StatusLine })},
		{"LOG_LEVEL", stringSetter(func(c *Config) *string { return &c.Log.Level })},
		{"LOG_FILE", stringSetter(func(c *Config) *string { return &c.Log.File })},
	}
}

// ApplyEnv overrides settings from CANDLETERM_* variables found by lookup.
// Empty values are treated as set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, s := range envSettings() {
		name := EnvPrefix + s.name
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			return fmt.Errorf("environment %s=%q: %w", name, v, err)
		}
	}
	return nil
}

func stringSetter(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}
