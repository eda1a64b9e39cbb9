package market

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Feature names. Year and mileage are always trained; the candidate list in
// ModelConfig decides which auxiliary features may join them.
const (
	FeatureYear       = "year"
	FeatureMileage    = "mileage"
	FeatureHorsepower = "horsepower"
)

// ModelConfig tunes training-set requirements and dynamic feature selection.
type ModelConfig struct {
	MinSamples  int          `yaml:"min_samples"`
	MinFillRate float64      `yaml:"min_fill_rate"`
	Candidates  []string     `yaml:"candidates"`
	Forest      ForestConfig `yaml:"forest"`
}

// RatioBreakpoints defines the piecewise-linear deal-score mapping. Good <
// Neutral < Bad is a configuration invariant checked at startup.
type RatioBreakpoints struct {
	Good    float64 `yaml:"good"`
	Neutral float64 `yaml:"neutral"`
	Bad     float64 `yaml:"bad"`
}

// Model estimates fair prices for one search scope. Each valuation run
// constructs or replaces the model wholesale; there is no incremental update.
// A Model is owned by a single scope evaluation and is not safe for
// concurrent mutation.
type Model struct {
	cfg       ModelConfig
	regressor Regressor

	trained  bool
	features []string
	imputers map[string]float64
	r2       *float64
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithRegressor swaps the default random-forest estimator for another
// Regressor implementation.
func WithRegressor(r Regressor) ModelOption {
	return func(m *Model) {
		m.regressor = r
	}
}

// NewModel creates an untrained valuation model.
func NewModel(cfg ModelConfig, opts ...ModelOption) *Model {
	m := &Model{
		cfg:      cfg,
		imputers: map[string]float64{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.regressor == nil {
		m.regressor = NewForest(cfg.Forest)
	}
	return m
}

// IsTrained reports whether the last Train call produced a usable model.
func (m *Model) IsTrained() bool { return m.trained }

// Features returns the feature list the model was trained with.
func (m *Model) Features() []string { return m.features }

// R2 returns the coefficient of determination measured on the training
// cohort itself, or nil when untrained. Evaluating on the training set
// overstates fit quality; the value is diagnostic metadata, not a gate.
func (m *Model) R2() *float64 { return m.r2 }

// Train fits the regressor against the cleaned cohort. Cohorts smaller than
// MinSamples leave the model untrained, which is a diagnostic state rather
// than an error: predictions simply become unavailable for this scope.
//
// Auxiliary candidate features join year and mileage only when their
// non-null fill rate reaches MinFillRate; missing values are imputed with
// the cohort median, and that median is recorded for inference.
func (m *Model) Train(cohort []TrainingRow) error {
	m.trained = false
	m.features = nil
	m.imputers = map[string]float64{}
	m.r2 = nil

	if len(cohort) < m.cfg.MinSamples {
		return nil
	}

	features := []string{FeatureYear, FeatureMileage}
	for _, name := range m.cfg.Candidates {
		values := candidateValues(cohort, name)
		if values == nil {
			continue
		}
		if fillRate(values) < m.cfg.MinFillRate {
			continue
		}
		m.imputers[name] = medianOfPresent(values)
		features = append(features, name)
	}

	X := make([][]float64, len(cohort))
	y := make([]float64, len(cohort))
	for i, row := range cohort {
		X[i] = m.featureRow(row, features)
		y[i] = *row.Price
	}

	if err := m.regressor.Fit(X, y); err != nil {
		return err
	}

	m.features = features
	m.trained = true
	r2 := m.regressor.Score(X, y)
	m.r2 = &r2
	return nil
}

// PredictPrice returns the fair-price estimate for one listing, or nil when
// the model is untrained. Absent auxiliary values fall back to the median
// recorded at training time.
func (m *Model) PredictPrice(year, mileage float64, horsepower *float64) *float64 {
	if !m.trained {
		return nil
	}

	x := make([]float64, 0, len(m.features))
	for _, name := range m.features {
		switch name {
		case FeatureYear:
			x = append(x, year)
		case FeatureMileage:
			x = append(x, mileage)
		case FeatureHorsepower:
			if horsepower != nil {
				x = append(x, *horsepower)
			} else {
				x = append(x, m.imputers[name])
			}
		default:
			x = append(x, m.imputers[name])
		}
	}

	predicted := math.Round(m.regressor.Predict(x)*100) / 100
	return &predicted
}

// DealScoreFromRatio maps virtualPrice/fairPrice onto [0,100]: 100 at or
// below the good ratio, 50 exactly at neutral, 0 at or beyond bad, linear
// in between. The mapping is continuous and non-increasing.
func DealScoreFromRatio(ratio float64, bp RatioBreakpoints) float64 {
	switch {
	case ratio <= bp.Good:
		return 100
	case ratio >= bp.Bad:
		return 0
	case ratio <= bp.Neutral:
		return 50 + (bp.Neutral-ratio)*(50/(bp.Neutral-bp.Good))
	default:
		return 50 - (ratio-bp.Neutral)*(50/(bp.Bad-bp.Neutral))
	}
}

// featureRow builds one training row, imputing absent auxiliary values.
func (m *Model) featureRow(row TrainingRow, features []string) []float64 {
	x := make([]float64, 0, len(features))
	for _, name := range features {
		switch name {
		case FeatureYear:
			x = append(x, *row.Year)
		case FeatureMileage:
			x = append(x, *row.Mileage)
		case FeatureHorsepower:
			if row.Horsepower != nil {
				x = append(x, *row.Horsepower)
			} else {
				x = append(x, m.imputers[name])
			}
		default:
			x = append(x, m.imputers[name])
		}
	}
	return x
}

// candidateValues extracts a candidate feature column; nil for unknown names.
func candidateValues(cohort []TrainingRow, name string) []*float64 {
	if name != FeatureHorsepower {
		return nil
	}
	values := make([]*float64, len(cohort))
	for i, row := range cohort {
		values[i] = row.Horsepower
	}
	return values
}

func fillRate(values []*float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var present int
	for _, v := range values {
		if v != nil {
			present++
		}
	}
	return float64(present) / float64(len(values))
}

func medianOfPresent(values []*float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return 0
	}
	sort.Float64s(present)
	return stat.Quantile(0.5, stat.Empirical, present, nil)
}
