package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Veraticus/textclass/internal/evaluate"
	"github.com/Veraticus/textclass/internal/model"
)

func metricLines(rows [][2]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s", BoldStyle.Render(fmt.Sprintf("%-20s", row[0]+":")), row[1])
	}
	return b.String()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func decimal(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// PrintMulticlassMetrics writes a boxed multiclass evaluation report.
func PrintMulticlassMetrics(w io.Writer, title string, m *evaluate.MulticlassMetrics) error {
	body := metricLines([][2]string{
		{"MicroAccuracy", decimal(m.MicroAccuracy)},
		{"MacroAccuracy", decimal(m.MacroAccuracy)},
		{"LogLoss", decimal(m.LogLoss)},
		{"LogLossReduction", decimal(m.LogLossReduction)},
		{fmt.Sprintf("Top%dAccuracy", m.TopK), decimal(m.TopKAccuracy)},
		{"Rows", humanize.Comma(int64(m.Rows))},
	})

	if len(m.Classes) > 0 {
		var perClass [][2]string
		for i, class := range m.Classes {
			perClass = append(perClass, [2]string{class, decimal(m.PerClassLogLoss[i])})
		}
		body += "\n\n" + SubtleStyle.Render("Per-class log-loss") + "\n" + metricLines(perClass)
	}

	_, err := fmt.Fprintln(w, RenderBox(ChartIcon+" "+title, body))
	return err
}

// PrintBinaryMetrics writes a boxed binary evaluation report.
func PrintBinaryMetrics(w io.Writer, title string, m *evaluate.BinaryMetrics) error {
	body := metricLines([][2]string{
		{"Accuracy", percent(m.Accuracy)},
		{"Auc", percent(m.AreaUnderRocCurve)},
		{"F1Score", percent(m.F1Score)},
		{"PositivePrecision", decimal(m.PositivePrecision)},
		{"PositiveRecall", decimal(m.PositiveRecall)},
		{"NegativePrecision", decimal(m.NegativePrecision)},
		{"NegativeRecall", decimal(m.NegativeRecall)},
		{"LogLoss", decimal(m.LogLoss)},
		{"LogLossReduction", decimal(m.LogLossReduction)},
		{"Rows", humanize.Comma(int64(m.Rows))},
	})

	_, err := fmt.Fprintln(w, RenderBox(ChartIcon+" "+title, body))
	return err
}

// PrintIssuePrediction writes the predicted area of an issue.
func PrintIssuePrediction(w io.Writer, heading string, issue model.GitHubIssue, pred model.IssuePrediction) error {
	area := pred.Area
	if area == "" {
		area = WarningStyle.Render("(none)")
	}
	_, err := fmt.Fprintf(w, "%s\n  Title: %s\n  %s %s\n\n",
		TitleStyle.UnsetMargins().Render(heading),
		issue.Title,
		BoldStyle.Render("Area:"),
		SuccessStyle.Render(area))
	return err
}

// PrintSentimentPrediction writes the verdict for a review.
func PrintSentimentPrediction(w io.Writer, pred model.SentimentPrediction) error {
	style := SuccessStyle
	if !pred.Prediction {
		style = ErrorStyle
	}
	_, err := fmt.Fprintf(w, "Sentiment: %s | Prediction: %s | Probability: %s\n",
		pred.SentimentText,
		style.Render(pred.Verdict()),
		decimal(float64(pred.Probability)))
	return err
}

// PrintModelSaved reports where a model artifact was written.
func PrintModelSaved(w io.Writer, path string, size int64) error {
	_, err := fmt.Fprintln(w, FormatSuccess(fmt.Sprintf("Saved model to %s (%s)", path, humanize.Bytes(uint64(size)))))
	return err
}

// PrintRuns writes the run history as a table, newest first.
func PrintRuns(w io.Writer, runs []model.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No runs recorded yet."))
		return err
	}

	header := []string{"ID", "PROGRAM", "STARTED", "DURATION", "TRAIN", "TEST", "METRIC"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			string(r.Program),
			humanize.Time(r.StartedAt),
			r.Duration().Round(time.Millisecond).String(),
			humanize.Comma(int64(r.TrainRows)),
			humanize.Comma(int64(r.TestRows)),
			headlineMetric(r),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(TableHeaderStyle.Width(widths[i] + 2).Render(h))
	}
	b.WriteByte('\n')
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(TableCellStyle.Width(widths[i] + 2).Render(cell))
		}
		b.WriteByte('\n')
	}

	_, err := fmt.Fprint(w, FolderIcon+" "+TitleStyle.Render("Training runs")+"\n"+b.String())
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// headlineMetric picks the metric that best summarizes a run.
func headlineMetric(r model.Run) string {
	for _, key := range []string{"micro_accuracy", "accuracy"} {
		if v, ok := r.Metrics[key]; ok {
			return fmt.Sprintf("%s=%.4f", key, v)
		}
	}
	return "-"
}
