package box2pix

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNumClasses = errors.New("number of classes must be positive")
	ErrInvalidAnchors    = errors.New("anchors per cell must be positive")
	ErrInvalidInput      = errors.New("invalid input tensor")
)

// OffsetChannels is the channel width of the offset map (dx, dy).
const OffsetChannels int64 = 2

// Config holds construction parameters of a Box2Pix network.
type Config struct {
	// NumClasses is the width of the semantic map and of the confidences.
	NumClasses int64
	// TransformInput enables the GoogLeNet input normalizer.
	TransformInput bool
	// AnchorsPerCell is the number of priors per location for each box tap.
	AnchorsPerCell [4]int64
	// Parallel runs the detection head and both decoders concurrently.
	Parallel bool
}

// DefaultConfig returns the configuration the network was published with.
func DefaultConfig() *Config {
	return &Config{
		NumClasses:     11,
		TransformInput: false,
		AnchorsPerCell: [4]int64{4, 6, 6, 4},
	}
}

// NewConfig returns the default configuration with numClasses and
// transformInput set.
func NewConfig(numClasses int64, transformInput bool) *Config {
	cfg := DefaultConfig()
	cfg.NumClasses = numClasses
	cfg.TransformInput = transformInput
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.NumClasses <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidNumClasses, c.NumClasses)
	}
	for i, a := range c.AnchorsPerCell {
		if a <= 0 {
			return fmt.Errorf("%w: tap %d has %d", ErrInvalidAnchors, i, a)
		}
	}
	return nil
}
