package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/textclass/internal/sdca"
)

// TrainingProgress shows SDCA epochs as a progress bar.
type TrainingProgress struct {
	bar         *progressbar.ProgressBar
	description string
}

// NewTrainingProgress creates a bar sized for maxIterations epochs.
func NewTrainingProgress(w io.Writer, description string, maxIterations int) *TrainingProgress {
	if maxIterations <= 0 {
		maxIterations = sdca.DefaultMaxIterations
	}
	bar := progressbar.NewOptions(maxIterations,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &TrainingProgress{bar: bar, description: description}
}

// Update moves the bar to the reported epoch. It matches the signature of
// sdca.Options.Progress.
func (p *TrainingProgress) Update(pr sdca.Progress) {
	p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset] gap %.4f", p.description, pr.Gap))
	if err := p.bar.Set(pr.Epoch); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar, whether or not training stopped early.
func (p *TrainingProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
