package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/errors"
	"github.com/matzehuels/ffbank/pkg/timing"
	"github.com/matzehuels/ffbank/pkg/transform"
)

// Config is the on-disk engine configuration (ffbank.toml).
//
//	[weights]
//	alpha = 1.0
//	beta = 0.5
//	gamma = 0.5
//
//	[banking]
//	fsdn2 = 10000.0
//	fsdn4 = 10000.0
//	lsrdpq4 = 10000.0
//
//	[legalize]
//	max_displacement = 0.0   # 0 = unbounded
//
//	[timing.cells]
//	"SNPSHOPT25_FSDN_V2_1" = 0.021
type Config struct {
	Weights  design.ObjectiveWeights `toml:"weights"`
	Banking  transform.Thresholds    `toml:"banking"`
	Legalize legalizeConfig          `toml:"legalize"`
	Timing   timingConfig            `toml:"timing"`
}

type legalizeConfig struct {
	MaxDisplacement float64 `toml:"max_displacement"`
}

type timingConfig struct {
	Cells map[string]float64 `toml:"cells"`
}

// DefaultConfig returns the built-in defaults: zero weights, reference
// banking thresholds, unbounded displacement, empty timing table.
func DefaultConfig() Config {
	return Config{Banking: transform.DefaultThresholds()}
}

// LoadConfig reads an engine configuration. A missing file yields the
// defaults — configuration problems never abort the pipeline — while a
// present-but-malformed file is reported.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeConfiguration, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), errors.Wrap(errors.ErrCodeConfiguration, err, "decode config %s", path)
	}
	if cfg.Banking == (transform.Thresholds{}) {
		cfg.Banking = transform.DefaultThresholds()
	}
	return cfg, nil
}

// Options converts the configuration into run options.
func (c Config) Options() Options {
	return Options{
		Weights:         c.Weights,
		Thresholds:      c.Banking,
		MaxDisplacement: c.Legalize.MaxDisplacement,
		Timing:          timing.Table(c.Timing.Cells),
	}
}
