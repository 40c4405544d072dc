package store

// Config holds configuration for the Store.
type Config struct {
	// ItemsTable is the name of the items table.
	// Default: "chips_items"
	ItemsTable string

	// UniqueTable is the name of the unique constraints table.
	// Default: "chips_unique_constraints"
	UniqueTable string

	// MaxIDAttempts bounds how many generated identifiers Insert tries when
	// an identifier collides with an existing item.
	// Default: 3
	MaxIDAttempts int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ItemsTable:    "chips_items",
		UniqueTable:   "chips_unique_constraints",
		MaxIDAttempts: 3,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.ItemsTable == "" {
		c.ItemsTable = "chips_items"
	}
	if c.UniqueTable == "" {
		c.UniqueTable = "chips_unique_constraints"
	}
	if c.MaxIDAttempts < 1 {
		c.MaxIDAttempts = 3
	}
}
