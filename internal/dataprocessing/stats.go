package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"gradepulse/pkg/contracts/domain"
)

// EmptyDatasetError indicates that no rows survived cleaning. This is
// a legitimate "nothing to report" outcome, not a failure: the subject
// yields no stats, no charts and no notifications.
type EmptyDatasetError struct {
	Subject string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("no valid grades found for subject %q", e.Subject)
}

// StatsEngine cleans a grade report and computes class-level statistics
// plus per-row rank and percentile.
type StatsEngine struct {
	logger *slog.Logger
}

// NewStatsEngine creates a new statistics engine
func NewStatsEngine(logger *slog.Logger) *StatsEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsEngine{logger: logger.With(slog.String("component", "stats"))}
}

// Compute cleans the report rows and derives class statistics.
//
// Cleaning drops rows whose grade fails numeric coercion, whose
// identifier is empty, or whose grade is zero or below (the withdrawal
// sentinel). When nothing survives, *EmptyDatasetError is returned.
//
// Rank uses competition ranking on descending grade: tied grades share
// the minimum position of the tie group. Percentile is the inclusive
// fraction of the class with grade less than or equal to the row's own
// grade, scaled to 0-100 and rounded to two decimals, so the top grade
// is always 100 and ties receive equal percentiles.
func (s *StatsEngine) Compute(report *domain.GradeReport, cols ColumnMapping) ([]domain.CleanedRow, domain.ClassStatistics, error) {
	cleaned := make([]domain.CleanedRow, 0, len(report.Rows))
	dropped := 0

	for _, row := range report.Rows {
		identifier := strings.TrimSpace(row[cols.Identifier])
		grade, err := coerceGrade(row[cols.Grade])
		if identifier == "" || err != nil || grade <= 0 {
			dropped++
			continue
		}
		cleaned = append(cleaned, domain.CleanedRow{Identifier: identifier, Grade: grade})
	}

	if len(cleaned) == 0 {
		return nil, domain.ClassStatistics{}, &EmptyDatasetError{Subject: report.Subject}
	}

	stats := domain.ClassStatistics{
		Mean:   mean(cleaned),
		StdDev: sampleStdDev(cleaned),
		Count:  len(cleaned),
	}

	assignRanks(cleaned)
	assignPercentiles(cleaned)

	s.logger.Info("computed class statistics",
		slog.String("subject", report.Subject),
		slog.Int("cleaned_rows", len(cleaned)),
		slog.Int("dropped_rows", dropped),
		slog.Float64("mean", stats.Mean),
		slog.Float64("std_dev", stats.StdDev))

	return cleaned, stats, nil
}

// coerceGrade parses a raw cell value as a float, stripping comma
// thousands separators the way spreadsheet exports write them.
// ParseFloat accepts "NaN" and "Inf" spellings; those are not grades,
// and NaN would slip past the grade > 0 cleaning filter, so non-finite
// values are rejected here.
func coerceGrade(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty grade cell")
	}
	grade, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return 0, fmt.Errorf("non-finite grade %q", raw)
	}
	return grade, nil
}

func mean(rows []domain.CleanedRow) float64 {
	sum := 0.0
	for _, row := range rows {
		sum += row.Grade
	}
	return sum / float64(len(rows))
}

// sampleStdDev computes the sample standard deviation (n-1 divisor).
// A single-row class has standard deviation 0 by convention.
func sampleStdDev(rows []domain.CleanedRow) float64 {
	n := len(rows)
	if n < 2 {
		return 0
	}
	m := mean(rows)
	sum := 0.0
	for _, row := range rows {
		d := row.Grade - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// assignRanks fills in competition ranks: grades sorted descending,
// ties share the minimum position of the tie group.
func assignRanks(rows []domain.CleanedRow) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rows[order[a]].Grade > rows[order[b]].Grade
	})

	for pos, idx := range order {
		if pos > 0 && rows[idx].Grade == rows[order[pos-1]].Grade {
			rows[idx].Rank = rows[order[pos-1]].Rank
		} else {
			rows[idx].Rank = pos + 1
		}
	}
}

// assignPercentiles fills in inclusive percentiles: the share of the
// class with grade <= the row's grade, as a 0-100 value rounded to two
// decimals.
func assignPercentiles(rows []domain.CleanedRow) {
	n := float64(len(rows))
	for i := range rows {
		atOrBelow := 0
		for j := range rows {
			if rows[j].Grade <= rows[i].Grade {
				atOrBelow++
			}
		}
		pct := float64(atOrBelow) / n * 100
		rows[i].Percentile = math.Round(pct*100) / 100
	}
}
