package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printSearchTable(searches []domain.Search) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tQUERY\tACTIVE\tMODEL\tLAST RUN\n")
	for i := range searches {
		s := &searches[i]
		lastRun := "-"
		if s.LastRunAt != nil {
			lastRun = s.LastRunAt.Format("2006-01-02 15:04")
		}
		tw.writef("%s\t%s\t%s\t%v\t%s\t%s\n",
			s.ID,
			truncate(s.Name, 30),
			truncate(s.Query, 40),
			s.Active,
			formatModelMeta(s.ModelMeta),
			lastRun,
		)
	}
	return tw.finish()
}

func printSearchDetail(s *domain.Search) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", s.ID)
	tw.writef("Name:\t%s\n", s.Name)
	tw.writef("Query:\t%s\n", s.Query)
	tw.writef("Active:\t%v\n", s.Active)
	if s.MinYear != nil {
		tw.writef("Min Year:\t%d\n", *s.MinYear)
	}
	if s.MaxYear != nil {
		tw.writef("Max Year:\t%d\n", *s.MaxYear)
	}
	if s.MinPrice != nil {
		tw.writef("Min Price:\t%d EUR\n", *s.MinPrice)
	}
	if s.MaxPrice != nil {
		tw.writef("Max Price:\t%d EUR\n", *s.MaxPrice)
	}
	tw.writef("Model:\t%s\n", formatModelMeta(s.ModelMeta))
	if s.ModelMeta != nil {
		tw.writef("Samples:\t%d\n", s.ModelMeta.SampleN)
		if len(s.ModelMeta.Features) > 0 {
			tw.writef("Features:\t%s\n", strings.Join(s.ModelMeta.Features, ", "))
		}
		if s.ModelMeta.TrainedAt != nil {
			tw.writef("Trained:\t%s\n", s.ModelMeta.TrainedAt.Format("2006-01-02 15:04:05"))
		}
	}
	if s.LastRunAt != nil {
		tw.writef("Last Run:\t%s\n", s.LastRunAt.Format("2006-01-02 15:04:05"))
	}
	return tw.finish()
}

// formatModelMeta renders the model state in one cell: the fit quality when
// trained, N/A otherwise.
func formatModelMeta(m *domain.ModelMeta) string {
	if m == nil {
		return "-"
	}
	if m.R2 == nil {
		return "N/A"
	}
	return fmt.Sprintf("R2=%.3f", *m.R2)
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tPRICE\tYEAR\tKM\tSCORE\tSTATUS\tFAV\n")
	for i := range listings {
		l := &listings[i]
		score := "-"
		if l.Scores != nil {
			score = fmt.Sprintf("%.1f", l.Scores.Total)
		}
		year := "-"
		if l.Year != nil {
			year = fmt.Sprintf("%d", *l.Year)
		}
		mileage := "-"
		if l.Mileage != nil {
			mileage = fmt.Sprintf("%d", *l.Mileage)
		}
		fav := ""
		if l.IsFavorite {
			fav = "*"
		}
		tw.writef("%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			truncate(l.Title, 40),
			l.Price,
			year,
			mileage,
			score,
			l.Status,
			fav,
		)
	}
	return tw.finish()
}

func printListingDetail(l *domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", l.ID)
	tw.writef("Title:\t%s\n", l.Title)
	tw.writef("Price:\t%d EUR\n", l.Price)
	if l.Year != nil {
		tw.writef("Year:\t%d\n", *l.Year)
	}
	if l.Mileage != nil {
		tw.writef("Mileage:\t%d km\n", *l.Mileage)
	}
	if l.Horsepower != nil {
		tw.writef("Horsepower:\t%d\n", *l.Horsepower)
	}
	if l.Fuel != "" {
		tw.writef("Fuel:\t%s\n", l.Fuel)
	}
	if l.Location != "" {
		tw.writef("Location:\t%s\n", l.Location)
	}
	if l.SellerRating != nil {
		tw.writef("Seller:\t%.2f (%d reviews)\n", *l.SellerRating, l.SellerRatingCount)
	}
	tw.writef("Status:\t%s / %s\n", l.Status, l.UserStatus)
	tw.writef("Favorite:\t%v\n", l.IsFavorite)
	tw.writef("URL:\t%s\n", l.URL)
	if err := tw.finish(); err != nil {
		return err
	}
	if l.Scores != nil {
		fmt.Println()
		return printScoreRecord(l.Scores)
	}
	return nil
}

func printScoreRecord(rec *scoring.ScoreRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Total:\t%.1f/100\n", rec.Total)
	tw.writef("Deal:\t%.1f\n", rec.Base.Deal)
	tw.writef("Confidence:\t%.1f\n", rec.Base.Conf)
	tw.writef("Product:\t%.1f\n", rec.Base.Prod)
	tw.writef("K mechanical:\t%.2f\n", rec.SanityChecks.KMeca)
	tw.writef("K modification:\t%.2f\n", rec.SanityChecks.KModif)
	tw.writef("K scam:\t%.2f\n", rec.SanityChecks.KScam)
	tw.writef("Posted Price:\t%d EUR\n", rec.Financial.PostedPrice)
	tw.writef("Repair Cost:\t%d EUR\n", rec.Financial.RepairCost)
	tw.writef("Virtual Price:\t%d EUR\n", rec.Financial.VirtualPrice)
	if rec.Financial.MarketEstimation != nil {
		tw.writef("Market Estimate:\t%d EUR\n", *rec.Financial.MarketEstimation)
	}
	return tw.finish()
}

func printJobRunsTable(runs []domain.JobRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04:05")
		}
		rows := "-"
		if r.RowsAffected != nil {
			rows = fmt.Sprintf("%d", *r.RowsAffected)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			completed,
			rows,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
