// Package model defines the records read from training data, the
// predictions written back to callers, and the run history.
package model

// GitHubIssue is one row of the issues data sets.
type GitHubIssue struct {
	ID          string `load:"0"`
	Area        string `load:"1"`
	Title       string `load:"2"`
	Description string `load:"3"`
}

// IssuePrediction is the area predicted for an issue.
type IssuePrediction struct {
	Area string `column:"PredictedLabel"`
	// Score holds one probability per area, in the model's class order.
	Score []float32
}
