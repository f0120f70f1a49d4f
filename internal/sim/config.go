package sim

// WorldConfig is the immutable tuning snapshot echoed to every client at
// join so both sides run the same deterministic rules.
type WorldConfig struct {
	TickRate    int   `json:"tickRate"`
	Seed        int64 `json:"seed"`
	EpochMillis int64 `json:"epochMillis"`
}

// DefaultWorldConfig returns the baseline tuning used when the caller does
// not override anything.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		TickRate: 15,
	}
}

// normalized fills zero fields with defaults.
func (c WorldConfig) normalized() WorldConfig {
	if c.TickRate <= 0 {
		c.TickRate = 15
	}
	return c
}
