package fusion

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

const (
	DefaultExponent   = 1.0
	DefaultLimitLevel = 2   // how many of the coarsest pyramid levels to leave out
	DefaultSigma      = 0.2 // spread of the well-exposedness curve around 0.5
)

// Weights are the exponents applied to each quality measure when building
// a weight map. An exponent of zero switches that measure off.
type Weights struct {
	Contrast    float64 `yaml:"contrast"`    // wC
	Exposedness float64 `yaml:"exposedness"` // wE
	Saturation  float64 `yaml:"saturation"`  // wS
}

func DefaultWeights() Weights {
	return Weights{DefaultExponent, DefaultExponent, DefaultExponent}
}

func (w Weights) String() string {
	return fmt.Sprintf("wC=%.2f, wE=%.2f, wS=%.2f", w.Contrast, w.Exposedness, w.Saturation)
}

func (w Weights) Validate() error {
	if w.Contrast < 0 || w.Exposedness < 0 || w.Saturation < 0 {
		return fmt.Errorf("weights (%s): exponents must not be negative", w)
	}
	return nil
}

// Config holds all the knobs for an ExposureFusion.
type Config struct {
	Verbosity   int
	Weights     Weights
	LimitLevel  int     // coarsest pyramid levels to drop
	Sigma       float64 // well-exposedness spread
	Workers     int     // goroutines for per-pixel work; 0 means GOMAXPROCS
	DumpWeights bool    // write each normalized weight map to weights-NN.png
}

func NewConfig() Config {
	return Config{
		Weights:    DefaultWeights(),
		LimitLevel: DefaultLimitLevel,
		Sigma:      DefaultSigma,
	}
}

// NewConfigFromYaml starts from the defaults, and overrides them with
// whatever the yaml sets.
func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse fusion config: %v", err)
	}
	return c, c.Validate()
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.LimitLevel < 0 {
		return fmt.Errorf("limitlevel %d: must not be negative", c.LimitLevel)
	}
	if c.Sigma <= 0 {
		return fmt.Errorf("sigma %f: must be positive", c.Sigma)
	}
	return nil
}
