package config

import "fmt"

func validate(c *Config) error {
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.NavigationAttempts < 1 {
		return fmt.Errorf("navigation attempts must be >= 1")
	}
	if c.ContentWaitTimeout < 0 {
		return fmt.Errorf("content wait timeout cannot be negative")
	}
	if c.ScrapeTimeout <= 0 {
		return fmt.Errorf("scrape timeout must be > 0")
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0")
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive")
	}
	if c.ScrollDelta == 0 {
		return fmt.Errorf("scroll delta cannot be zero")
	}
	if c.ScrollDelay < 0 {
		return fmt.Errorf("scroll delay cannot be negative")
	}
	if c.StagnationLimit < 1 {
		return fmt.Errorf("stagnation limit must be >= 1")
	}
	if c.MaxScrollIterations < 1 {
		return fmt.Errorf("max scroll iterations must be >= 1")
	}
	if c.ReviewsPerBatch < 1 {
		return fmt.Errorf("reviews per batch must be >= 1")
	}
	if c.LimitMode != LimitModeEstimate && c.LimitMode != LimitModeExact {
		return fmt.Errorf("limit mode must be %q or %q, got %q", LimitModeEstimate, LimitModeExact, c.LimitMode)
	}
	if c.MinPayloadChars < 0 {
		return fmt.Errorf("min payload chars cannot be negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	return nil
}
