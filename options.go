package sptensor

// DefaultBuckets is the initial bucket count of a new tensor.
const DefaultBuckets = 128

// loadFactor is the occupancy above which the table doubles.
const loadFactor = 0.8

type config struct {
	buckets    int
	maxBuckets int
}

func defaultConfig() config {
	return config{
		buckets:    DefaultBuckets,
		maxBuckets: maxTableLength,
	}
}

// Option configures a Tensor.
type Option func(*config)

// WithCapacity sets the initial bucket count. It is rounded up to a power
// of 2, and is at least 2.
func WithCapacity(buckets int) Option {
	return func(c *config) {
		c.buckets = buckets
	}
}

// WithMaxBuckets caps how far the table may grow. Growth past the cap fails
// with ErrCapacityExhausted. The cap is rounded up to a power of 2.
func WithMaxBuckets(buckets int) Option {
	return func(c *config) {
		c.maxBuckets = buckets
	}
}

func (c config) resolve() config {
	c.buckets = calcTableLength(c.buckets)
	c.maxBuckets = calcTableLength(c.maxBuckets)
	if c.buckets > c.maxBuckets {
		c.buckets = c.maxBuckets
	}
	return c
}
