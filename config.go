package atlas

// Default and limit values for AtlasSet configuration.
const (
	// DefaultExtent is the default layer dimension (2048x2048).
	DefaultExtent = 2048

	// MinExtent is the smallest supported layer dimension.
	MinExtent = 256

	// MaxExtent is the largest supported layer dimension.
	MaxExtent = 8192

	// DefaultMaxLayers is the default limit on the number of layers.
	DefaultMaxLayers = 8

	// DefaultMigrationRatio marks a layer for draining once its
	// deallocation count exceeds twice its live occupancy.
	DefaultMigrationRatio = 2.0

	// DefaultMigrationBudget is the default number of placements one
	// Migrate call may relocate.
	DefaultMigrationBudget = 16
)

// Config holds AtlasSet configuration.
//
// All layers share a single fixed extent: the set backs one GPU texture
// array, and array layers must have identical dimensions, so growth adds
// layers rather than enlarging them.
type Config struct {
	// Extent is the layer dimension (width = height).
	// Must be a power of 2. Default: 2048.
	Extent uint32

	// MaxLayers limits the number of layers the set may create.
	// Default: 8.
	MaxLayers int

	// MigrationRatio is the fragmentation threshold: a layer whose
	// deallocation count exceeds live*MigrationRatio is marked for
	// draining on the next Migrate call. Default: 2.0.
	MigrationRatio float64

	// MigrationBudget caps how many placements a single Migrate call may
	// relocate, trading a longer drain for no single large stall.
	// Default: 16.
	MigrationBudget int

	// Label is an optional debug label included in log output.
	Label string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Extent:          DefaultExtent,
		MaxLayers:       DefaultMaxLayers,
		MigrationRatio:  DefaultMigrationRatio,
		MigrationBudget: DefaultMigrationBudget,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Extent < MinExtent {
		return &ConfigError{Field: "Extent", Reason: "must be at least 256"}
	}
	if c.Extent > MaxExtent {
		return &ConfigError{Field: "Extent", Reason: "must be at most 8192"}
	}
	// Check power of 2
	if c.Extent&(c.Extent-1) != 0 {
		return &ConfigError{Field: "Extent", Reason: "must be power of 2"}
	}
	if c.MaxLayers < 1 {
		return &ConfigError{Field: "MaxLayers", Reason: "must be at least 1"}
	}
	if c.MaxLayers > 256 {
		return &ConfigError{Field: "MaxLayers", Reason: "must be at most 256"}
	}
	if c.MigrationRatio <= 0 {
		return &ConfigError{Field: "MigrationRatio", Reason: "must be positive"}
	}
	if c.MigrationBudget < 1 {
		return &ConfigError{Field: "MigrationBudget", Reason: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
