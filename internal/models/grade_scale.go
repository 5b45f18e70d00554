package models

import (
	"fmt"
	"sort"
	"time"
)

// GradeBand maps a minimum percentage to a letter grade and remark.
type GradeBand struct {
	MinPercent int    `db:"min_percent" json:"min_percent"`
	Grade      string `db:"grade" json:"grade"`
	Remark     string `db:"remark" json:"remark"`
}

// GradeScale is the ordered threshold table used by the classifier.
// Bands are kept sorted descending by MinPercent; the lowest band is the
// failing band.
type GradeScale struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Bands     []GradeBand `json:"bands"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// DefaultGradeScale is used when no scale has been configured.
func DefaultGradeScale() GradeScale {
	return GradeScale{
		Name: "default",
		Bands: []GradeBand{
			{MinPercent: 70, Grade: "A", Remark: "Excellent"},
			{MinPercent: 60, Grade: "B", Remark: "Very Good"},
			{MinPercent: 50, Grade: "C", Remark: "Good"},
			{MinPercent: 45, Grade: "D", Remark: "Fair"},
			{MinPercent: 40, Grade: "E", Remark: "Pass"},
			{MinPercent: 0, Grade: "F", Remark: "Fail"},
		},
	}
}

// Validate checks the scale is monotonic and exhaustive over [0,100].
func (s GradeScale) Validate() error {
	if len(s.Bands) < 2 {
		return fmt.Errorf("grade scale needs at least two bands, got %d", len(s.Bands))
	}
	bands := s.sorted()
	if bands[len(bands)-1].MinPercent != 0 {
		return fmt.Errorf("lowest band must start at 0, got %d", bands[len(bands)-1].MinPercent)
	}
	seen := make(map[string]bool, len(bands))
	for i, band := range bands {
		if band.MinPercent < 0 || band.MinPercent > 100 {
			return fmt.Errorf("band %q threshold %d outside [0,100]", band.Grade, band.MinPercent)
		}
		if band.Grade == "" {
			return fmt.Errorf("band at %d has no grade letter", band.MinPercent)
		}
		if seen[band.Grade] {
			return fmt.Errorf("duplicate grade letter %q", band.Grade)
		}
		seen[band.Grade] = true
		if i > 0 && bands[i-1].MinPercent == band.MinPercent {
			return fmt.Errorf("duplicate threshold %d", band.MinPercent)
		}
	}
	return nil
}

// BandFor returns the band covering the given percentage.
func (s GradeScale) BandFor(percent int) GradeBand {
	bands := s.sorted()
	for _, band := range bands {
		if percent >= band.MinPercent {
			return band
		}
	}
	return bands[len(bands)-1]
}

// IsPass reports whether the grade is above the lowest band.
func (s GradeScale) IsPass(grade string) bool {
	bands := s.sorted()
	return grade != bands[len(bands)-1].Grade
}

func (s GradeScale) sorted() []GradeBand {
	bands := make([]GradeBand, len(s.Bands))
	copy(bands, s.Bands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinPercent > bands[j].MinPercent })
	return bands
}
