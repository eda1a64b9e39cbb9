// Package domain defines the core business types for autocote.
package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tmarchal/autocote/pkg/scoring"
)

// Status represents the lifecycle state of a listing as derived by the robot.
type Status string

// Listing status constants.
const (
	StatusActive   Status = "ACTIVE"
	StatusSold     Status = "SOLD"
	StatusArchived Status = "ARCHIVED"
	StatusScam     Status = "SCAM"
)

// UserStatus represents manual flags set by the operator.
type UserStatus string

// User status constants.
const (
	UserStatusNormal     UserStatus = "NORMAL"
	UserStatusTrash      UserStatus = "TRASH"
	UserStatusScamManual UserStatus = "SCAM_MANUAL"
)

// PricePoint is one entry in a listing's price history.
type PricePoint struct {
	Price      int       `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// Listing represents a secondhand-vehicle ad observed by a search scope.
type Listing struct {
	ID        string   `json:"id"         db:"id"`
	URL       string   `json:"url"        db:"url"`
	SearchIDs []string `json:"search_ids" db:"search_ids"`

	// Vehicle
	Title       string `json:"title"                 db:"title"`
	Description string `json:"description,omitempty" db:"description"`
	Price       int    `json:"price"                 db:"price"`
	Mileage     *int   `json:"mileage,omitempty"     db:"mileage"`
	Year        *int   `json:"year,omitempty"        db:"year"`
	Fuel        string `json:"fuel,omitempty"        db:"fuel"`
	Gearbox     string `json:"gearbox,omitempty"     db:"gearbox"`
	Horsepower  *int   `json:"horsepower,omitempty"  db:"horsepower"`
	Trim        string `json:"trim,omitempty"        db:"trim"`

	// Location
	Location string `json:"location,omitempty" db:"location"`
	Zipcode  string `json:"zipcode,omitempty"  db:"zipcode"`

	// Seller
	SellerRating      *float64 `json:"seller_rating,omitempty" db:"seller_rating"`
	SellerRatingCount int      `json:"seller_rating_count"     db:"seller_rating_count"`

	// Lifecycle
	Status       Status       `json:"status"                  db:"status"`
	UserStatus   UserStatus   `json:"user_status"             db:"user_status"`
	IsFavorite   bool         `json:"is_favorite"             db:"is_favorite"`
	PriceHistory []PricePoint `json:"price_history,omitempty" db:"price_history"`

	// Intelligence
	Scores   *scoring.ScoreRecord `json:"scores,omitempty"   db:"scores"`
	Analysis json.RawMessage      `json:"analysis,omitempty" db:"analysis"`

	// Timestamps
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	FirstSeenAt time.Time  `json:"first_seen_at"          db:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"           db:"last_seen_at"`
	UpdatedAt   time.Time  `json:"updated_at"             db:"updated_at"`
}

// DescriptionWordCount reports how many whitespace-separated words the
// description carries. The confidence pillar uses it as an effort signal.
func (l *Listing) DescriptionWordCount() int {
	return len(strings.Fields(l.Description))
}

// HasScores reports whether composite scoring has run for this listing.
func (l *Listing) HasScores() bool {
	return l.Scores != nil
}

// ModelMeta is the per-search diagnostic snapshot of the valuation model.
// R2 is nil when the last run left the model untrained.
type ModelMeta struct {
	R2        *float64   `json:"r2,omitempty"`
	Features  []string   `json:"features,omitempty"`
	TrainedAt *time.Time `json:"trained_at,omitempty"`
	SampleN   int        `json:"sample_n"`
}

// Search is a saved search scope. Listings found by the same search form the
// cohort its valuation model trains on.
type Search struct {
	ID        string     `json:"id"                    db:"id"`
	Name      string     `json:"name"                  db:"name"`
	Query     string     `json:"query"                 db:"query"`
	MinYear   *int       `json:"min_year,omitempty"    db:"min_year"`
	MaxYear   *int       `json:"max_year,omitempty"    db:"max_year"`
	MinPrice  *int       `json:"min_price,omitempty"   db:"min_price"`
	MaxPrice  *int       `json:"max_price,omitempty"   db:"max_price"`
	Active    bool       `json:"active"                db:"active"`
	ModelMeta *ModelMeta `json:"model_meta,omitempty"  db:"model_meta"`
	LastRunAt *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
	CreatedAt time.Time  `json:"created_at"            db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"            db:"updated_at"`
}

// JobRun records a single execution of a scheduled job.
type JobRun struct {
	ID           string     `json:"id"                      db:"id"`
	JobName      string     `json:"job_name"                db:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"`
	Status       string     `json:"status"                  db:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected"`
}
