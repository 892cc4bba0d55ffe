package quality

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithHighRatingThreshold sets the minimum reference rating that drives
// style suggestions.
func WithHighRatingThreshold(rating int) Option {
	return func(a *Analyzer) {
		if rating > 0 {
			a.highRating = rating
		}
	}
}

// WithSuggestionCap bounds the number of suggested style tags.
func WithSuggestionCap(limit int) Option {
	return func(a *Analyzer) {
		if limit > 0 {
			a.suggestionCap = limit
		}
	}
}
