package market

// Regressor is the estimator capability behind the valuation model. Any
// ensemble, tree, or linear implementation satisfies it; the model never
// depends on a specific learning algorithm.
type Regressor interface {
	// Fit trains the estimator on feature matrix X (one row per sample)
	// against target y. len(X) == len(y) and every row has the same width.
	Fit(X [][]float64, y []float64) error

	// Predict returns the point estimate for a single feature row. Only
	// valid after a successful Fit.
	Predict(x []float64) float64

	// Score returns the coefficient of determination of the fitted
	// estimator on (X, y).
	Score(X [][]float64, y []float64) float64
}
