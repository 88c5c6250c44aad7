package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/textclass/internal/common"
)

// WriteMetricsYAML writes metrics, or any value with yaml tags, to path.
func WriteMetricsYAML(path string, metrics any) error {
	out, err := yaml.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: failed to create metrics directory: %w", common.ErrIO, err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("%w: failed to write metrics: %w", common.ErrIO, err)
	}

	slog.Debug("Wrote metrics", "path", path, "bytes", len(out))
	return nil
}
