package probe

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// DefaultEndpoint is the address a pitfall server listens on out of the box.
const DefaultEndpoint = "http://localhost:3000"

// Config is the resolved client configuration. Zero fields are unset.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Override returns c with every set field of o applied on top.
func (c Config) Override(o Config) Config {
	if o.Endpoint != "" {
		c.Endpoint = o.Endpoint
	}
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}
	return c
}

// WithDefaults returns a copy with DefaultEndpoint and DefaultTimeout
// filled in.
func (c *Config) WithDefaults() *Config {
	cfg := Config{Endpoint: DefaultEndpoint, Timeout: DefaultTimeout}.Override(*c)
	return &cfg
}

// Validate checks that Endpoint is an absolute http(s) URL.
func (c *Config) Validate() error {
	return ValidateEndpoint(c.Endpoint)
}

// ValidateEndpoint reports whether endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidEndpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	return nil
}

// Env holds the PITFALL_* variables the probe reads.
type Env struct {
	Endpoint     string // PITFALL_ENDPOINT
	Profile      string // PITFALL_PROFILE
	ProfilesPath string // PITFALL_PROBE_CONFIG
}

// LookupEnv reads Env from the process environment.
func LookupEnv() Env {
	return Env{
		Endpoint:     os.Getenv("PITFALL_ENDPOINT"),
		Profile:      os.Getenv("PITFALL_PROFILE"),
		ProfilesPath: os.Getenv("PITFALL_PROBE_CONFIG"),
	}
}
