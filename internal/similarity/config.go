package similarity

import (
	"fmt"
	"time"
)

// Config holds tunables for similarity matching. The defaults are load
// bearing: callers expect active matches to surface at 60 and historical
// matches at 80, with 1 hour and 1 week of caching respectively.
type Config struct {
	// BatchCap is the hard limit on candidates compared in a single model
	// request, bounding prompt token size. Larger candidate sets are
	// chunked by the callers.
	BatchCap int

	// ActiveThreshold is the minimum score persisted/surfaced for
	// real-time matches against open tickets.
	ActiveThreshold int

	// HistoricalThreshold is the minimum score persisted for sweep matches
	// against resolved tickets.
	HistoricalThreshold int

	// ActiveTTL is how long real-time match snapshots stay live.
	ActiveTTL time.Duration

	// HistoricalTTL is how long sweep match snapshots stay live.
	HistoricalTTL time.Duration

	// MaxCandidates caps how many tickets are fetched from the store as
	// comparison material per lookup (0 = no cap).
	MaxCandidates int
}

// DefaultConfig returns the standard thresholds and TTLs
func DefaultConfig() Config {
	return Config{
		BatchCap:            20,
		ActiveThreshold:     60,
		HistoricalThreshold: 80,
		ActiveTTL:           1 * time.Hour,
		HistoricalTTL:       168 * time.Hour,
		MaxCandidates:       200,
	}
}

// Validate checks the configuration for usable values
func (c Config) Validate() error {
	if c.BatchCap < 1 {
		return fmt.Errorf("batch cap must be at least 1, got %d", c.BatchCap)
	}
	if c.ActiveThreshold < 0 || c.ActiveThreshold > 100 {
		return fmt.Errorf("active threshold must be 0-100, got %d", c.ActiveThreshold)
	}
	if c.HistoricalThreshold < 0 || c.HistoricalThreshold > 100 {
		return fmt.Errorf("historical threshold must be 0-100, got %d", c.HistoricalThreshold)
	}
	if c.ActiveTTL <= 0 {
		return fmt.Errorf("active TTL must be positive, got %v", c.ActiveTTL)
	}
	if c.HistoricalTTL <= 0 {
		return fmt.Errorf("historical TTL must be positive, got %v", c.HistoricalTTL)
	}
	if c.MaxCandidates < 0 {
		return fmt.Errorf("max candidates cannot be negative, got %d", c.MaxCandidates)
	}
	return nil
}
