package evaluate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Veraticus/textclass/internal/common"
)

// PlotROC renders the curve, with the chance diagonal, to an image file.
// The format follows the file extension (png, svg, pdf).
func PlotROC(curve *ROCCurve, path string) error {
	if curve.Degenerate || len(curve.FPR) < 2 {
		return fmt.Errorf("%w: ROC curve needs both classes", common.ErrInvalidConfig)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC (AUC %.3f)", curve.area())
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(curve.FPR))
	for i := range pts {
		pts[i] = plotter.XY{X: curve.FPR[i], Y: curve.TPR[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build ROC line: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("failed to build chance line: %w", err)
	}
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(line, chance)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: failed to create plot directory: %w", common.ErrIO, err)
	}
	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("%w: failed to save ROC plot: %w", common.ErrIO, err)
	}

	slog.Info("Saved ROC plot", "path", path, "points", len(pts))
	return nil
}
