package smoke

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DrainPollInterval    = 500 * time.Millisecond
	PercentageMultiplier = 100
	maxBodyBytes         = 1 << 20
)
