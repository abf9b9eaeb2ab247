package feedback

// trendWindow is how many of the latest results are compared.
const trendWindow = 3

// ClassifyTrend compares the first and last score of the latest three
// results. Fewer than two results is insufficient data.
func ClassifyTrend(results []TestResult) Trend {
	if len(results) < 2 {
		return TrendInsufficientData
	}
	window := results
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}
	first, last := window[0].Score, window[len(window)-1].Score
	switch {
	case last > first:
		return TrendImproving
	case last < first:
		return TrendDeclining
	default:
		return TrendStable
	}
}
