package scoring

// SellerConfig defines the seller-reputation adjustment. Ratings only count
// once the seller has MinReviews reviews; ratings between BadThreshold and
// TopThreshold are neutral.
type SellerConfig struct {
	MinReviews   int     `yaml:"min_reviews"`
	TopThreshold float64 `yaml:"top_threshold"`
	BadThreshold float64 `yaml:"bad_threshold"`
	Bonus        float64 `yaml:"bonus"`
	Malus        float64 `yaml:"malus"`
}

// DescriptionConfig defines the description-length adjustment, a cheap
// proxy for seller effort.
type DescriptionConfig struct {
	ShortLen     int     `yaml:"short_len"`
	ShortPenalty float64 `yaml:"short_penalty"`
	LongLen      int     `yaml:"long_len"`
	LongBonus    float64 `yaml:"long_bonus"`
}

// ConfidenceConfig drives the confidence pillar. BonusTags and MalusTags map
// the closed tag vocabulary to point adjustments; tags outside the vocabulary
// fall back to DefaultBonus/DefaultMalus.
type ConfidenceConfig struct {
	Base         float64            `yaml:"base"`
	BonusTags    map[string]float64 `yaml:"bonus_tags"`
	MalusTags    map[string]float64 `yaml:"malus_tags"`
	DefaultBonus float64            `yaml:"default_bonus"`
	DefaultMalus float64            `yaml:"default_malus"`
	Seller       SellerConfig       `yaml:"seller"`
	Description  DescriptionConfig  `yaml:"description"`
}

// ConfidenceInput carries the per-listing signals consumed by the
// confidence pillar.
type ConfidenceInput struct {
	TagsPositive         []string
	TagsNegative         []string
	SellerRating         *float64 // nil when the platform shows no rating
	SellerRatingCount    int
	DescriptionWordCount int
}

// ComputeConfidence turns trust/distrust tags, seller reputation, and
// description length into a confidence score in [0,100]. All adjustments are
// commutative additions from the configured base; the running total is
// clamped only at the end.
func ComputeConfidence(in ConfidenceInput, cfg ConfidenceConfig) float64 {
	score := cfg.Base

	for _, tag := range in.TagsPositive {
		if v, ok := cfg.BonusTags[tag]; ok {
			score += v
		} else {
			score += cfg.DefaultBonus
		}
	}
	for _, tag := range in.TagsNegative {
		if v, ok := cfg.MalusTags[tag]; ok {
			score += v
		} else {
			score += cfg.DefaultMalus
		}
	}

	if in.SellerRating != nil && in.SellerRatingCount >= cfg.Seller.MinReviews {
		switch {
		case *in.SellerRating >= cfg.Seller.TopThreshold:
			score += cfg.Seller.Bonus
		case *in.SellerRating < cfg.Seller.BadThreshold:
			score += cfg.Seller.Malus
		}
	}

	if in.DescriptionWordCount < cfg.Description.ShortLen {
		score += cfg.Description.ShortPenalty
	} else if in.DescriptionWordCount > cfg.Description.LongLen {
		score += cfg.Description.LongBonus
	}

	return clamp(score, 0, 100)
}
