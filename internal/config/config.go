package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/pipeline"
	"github.com/Veraticus/textclass/internal/sdca"
	"github.com/Veraticus/textclass/internal/text"
)

// Default values for settings that have no natural zero.
const (
	DefaultSeed              = 0
	DefaultTestFraction      = 0.2
	DefaultDatabasePath      = "$HOME/.local/share/textclass/runs.db"
	DefaultIssuesTrainPath   = "data/issues_train.tsv"
	DefaultIssuesTestPath    = "data/issues_test.tsv"
	DefaultIssuesModelPath   = "models/model.zip"
	DefaultSentimentDataPath = "data/yelp_labelled.txt"
	DefaultSentimentModel    = "models/sentiment.zip"
)

// Training holds the settings shared by both programs.
type Training struct {
	Seed          int64
	L2            float64
	Tolerance     float64
	MaxIterations int
	FeatureBits   int
}

// Env returns the pipeline environment for these settings.
func (t Training) Env() pipeline.Env {
	return pipeline.Env{Seed: t.Seed, FeatureBits: t.FeatureBits}
}

// SDCA returns trainer options for these settings. The progress callback is
// left for the caller.
func (t Training) SDCA() sdca.Options {
	return sdca.Options{L2: t.L2, MaxIterations: t.MaxIterations, Tolerance: t.Tolerance}
}

// Issues configures the issue labeler.
type Issues struct {
	TrainPath string
	TestPath  string
	ModelPath string
}

// Sentiment configures the review classifier.
type Sentiment struct {
	DataPath     string
	ModelPath    string
	TestFraction float64
}

// Config is the fully resolved configuration.
type Config struct {
	Issues       Issues
	Sentiment    Sentiment
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Training     Training
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("seed", DefaultSeed)
	v.SetDefault("sdca.l2", sdca.DefaultL2)
	v.SetDefault("sdca.max_iterations", sdca.DefaultMaxIterations)
	v.SetDefault("sdca.tolerance", sdca.DefaultTolerance)
	v.SetDefault("featurizer.bits", text.DefaultBits)

	v.SetDefault("issues.train_path", DefaultIssuesTrainPath)
	v.SetDefault("issues.test_path", DefaultIssuesTestPath)
	v.SetDefault("issues.model_path", DefaultIssuesModelPath)

	v.SetDefault("sentiment.data_path", DefaultSentimentDataPath)
	v.SetDefault("sentiment.test_fraction", DefaultTestFraction)
	v.SetDefault("sentiment.model_path", DefaultSentimentModel)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves the configuration from v. Paths are expanded and every
// numeric setting is range checked.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Training: Training{
			Seed:          v.GetInt64("seed"),
			L2:            v.GetFloat64("sdca.l2"),
			MaxIterations: v.GetInt("sdca.max_iterations"),
			Tolerance:     v.GetFloat64("sdca.tolerance"),
			FeatureBits:   v.GetInt("featurizer.bits"),
		},
		Issues: Issues{
			TrainPath: ExpandPath(v.GetString("issues.train_path")),
			TestPath:  ExpandPath(v.GetString("issues.test_path")),
			ModelPath: ExpandPath(v.GetString("issues.model_path")),
		},
		Sentiment: Sentiment{
			DataPath:     ExpandPath(v.GetString("sentiment.data_path")),
			ModelPath:    ExpandPath(v.GetString("sentiment.model_path")),
			TestFraction: v.GetFloat64("sentiment.test_fraction"),
		},
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	t := c.Training
	switch {
	case t.L2 < 0 || math.IsNaN(t.L2):
		return fmt.Errorf("%w: sdca.l2 must be non-negative, got %v", common.ErrInvalidConfig, t.L2)
	case t.MaxIterations < 0:
		return fmt.Errorf("%w: sdca.max_iterations must be non-negative, got %d", common.ErrInvalidConfig, t.MaxIterations)
	case t.Tolerance < 0 || math.IsNaN(t.Tolerance):
		return fmt.Errorf("%w: sdca.tolerance must be non-negative, got %v", common.ErrInvalidConfig, t.Tolerance)
	case t.FeatureBits < 1 || t.FeatureBits > 24:
		return fmt.Errorf("%w: featurizer.bits must be between 1 and 24, got %d", common.ErrInvalidConfig, t.FeatureBits)
	case c.Sentiment.TestFraction <= 0 || c.Sentiment.TestFraction >= 1:
		return fmt.Errorf("%w: sentiment.test_fraction must be in (0, 1), got %v", common.ErrInvalidConfig, c.Sentiment.TestFraction)
	}

	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
