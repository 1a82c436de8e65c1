package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"
)

// Config holds crawler configuration. It is built once at startup and not
// mutated afterwards; the retryable-status set is fixed at construction.
type Config struct {
	BaseURL          string
	StartPath        string
	Headers          map[string]string
	UserAgent        string
	MinDelay         time.Duration
	MaxDelay         time.Duration
	MaxRetries       int // total attempt budget per page, not extra retries
	Timeout          time.Duration
	RetryStatuses    []int
	MaxPages         int
	RespectRobotsTxt bool
	OutputDir        string
	OutputFormat     string // csv, json, or dual
	MetricsAddr      string
	Verbose          bool
	DedupeMaxSize    int
	PriceLimit       float64
	DatabaseURL      string
	SinkTable        string
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://books.toscrape.com/",
		StartPath: "catalogue/page-1.html",
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Connection":      "keep-alive",
			"Referer":         "https://www.google.com/",
		},
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MinDelay:      1500 * time.Millisecond,
		MaxDelay:      3500 * time.Millisecond,
		MaxRetries:    5,
		Timeout:       20 * time.Second,
		RetryStatuses: []int{403, 408, 429, 500, 502, 503, 504},
		MaxPages:      60,
		OutputDir:     "output",
		OutputFormat:  "csv",
		DedupeMaxSize: 100000,
		PriceLimit:    30,
		SinkTable:     "books_filtered",
	}
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MinDelay < 0 {
		return fmt.Errorf("min delay cannot be negative")
	}
	if c.MinDelay > c.MaxDelay {
		return fmt.Errorf("min delay (%s) cannot exceed max delay (%s)", c.MinDelay, c.MaxDelay)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.PriceLimit <= 0 {
		return fmt.Errorf("price limit must be positive")
	}
	if !identifierPattern.MatchString(c.SinkTable) {
		return fmt.Errorf("sink table %q is not a valid identifier", c.SinkTable)
	}

	return nil
}

// RetryableStatus reports whether code is in the retryable set.
func (c *Config) RetryableStatus(code int) bool {
	for _, s := range c.RetryStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// StartURL resolves the catalog entry point against the base URL.
func (c *Config) StartURL() string {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL
	}
	ref, err := url.Parse(c.StartPath)
	if err != nil {
		return c.BaseURL
	}
	return base.ResolveReference(ref).String()
}

// EnvInt reads an integer environment variable. The second return value
// reports whether the variable was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return value, true, nil
}

// EnvFloat reads a float environment variable.
func EnvFloat(name string) (float64, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
