package sim

import "time"

// SharedClock anchors every combat timestamp to a single epoch fixed at
// session start. Both sides exchange and compare only offsets from the epoch,
// so absolute wall-clock skew between machines never enters timer math.
type SharedClock struct {
	epoch time.Time
}

// NewSharedClock fixes the epoch at the given instant.
func NewSharedClock(epoch time.Time) SharedClock {
	return SharedClock{epoch: epoch}
}

// Epoch returns the anchor instant.
func (c SharedClock) Epoch() time.Time { return c.epoch }

// EpochUnixMilli is the epoch in the form sent during the clock handshake.
func (c SharedClock) EpochUnixMilli() int64 { return c.epoch.UnixMilli() }

// Offset converts an instant to a shared-clock offset.
func (c SharedClock) Offset(t time.Time) time.Duration {
	return t.Sub(c.epoch)
}

// Instant converts a shared-clock offset back to an absolute time.
func (c SharedClock) Instant(offset time.Duration) time.Time {
	return c.epoch.Add(offset)
}
