package model

// SentimentData is one labelled review. Sentiment is true for positive
// reviews.
type SentimentData struct {
	SentimentText string `load:"0"`
	Sentiment     bool   `load:"1" column:"Label"`
}

// SentimentPrediction is the verdict for a review.
type SentimentPrediction struct {
	SentimentText string
	Prediction    bool `column:"PredictedLabel"`
	Probability   float32
	Score         float32
}

// Verdict returns the human-readable label of the prediction.
func (p SentimentPrediction) Verdict() string {
	if p.Prediction {
		return "Positive"
	}
	return "Negative"
}
