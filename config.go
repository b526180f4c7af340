package atlas

import "fmt"

// Config collects every knob the signature discovery core recognizes.
// Commands build one from flags and call Validate before doing any
// work; a bad value is caller misuse and fails the whole run.
type Config struct {
	MinLog2FC           float64
	MaxPValAdj          float64
	MinTissues          int
	DirectionConsistent bool
	OverlapMetric       OverlapMetric
	TopN                int
}

func DefaultConfig() Config {
	return Config{
		MinLog2FC:           0.5,
		MaxPValAdj:          0.05,
		MinTissues:          2,
		DirectionConsistent: true,
		OverlapMetric:       Jaccard,
		TopN:                20,
	}
}

func (c Config) Validate() error {
	if c.MinLog2FC < 0 {
		return fmt.Errorf("min-log2fc must be >= 0, got %v", c.MinLog2FC)
	}
	if !(c.MaxPValAdj > 0 && c.MaxPValAdj <= 1) {
		return fmt.Errorf("max-pval-adj must be in (0, 1], got %v", c.MaxPValAdj)
	}
	if c.MinTissues < 1 {
		return fmt.Errorf("min-tissues must be >= 1, got %d", c.MinTissues)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top-n must be >= 0, got %d", c.TopN)
	}
	if _, err := ParseOverlapMetric(string(c.OverlapMetric)); err != nil {
		return err
	}
	return nil
}
