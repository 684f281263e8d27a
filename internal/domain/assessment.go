package domain

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/hazard-impact-service/internal/report"
)

// Status names the outcome of an assessment on the wire.
type Status string

const (
	StatusImpact     Status = "impact"
	StatusZeroImpact Status = "zero_impact"
)

// Default assessment parameters for a flood depth hazard in metres.
const (
	DefaultClasses    = 8
	DefaultHazardUnit = "m"
	DefaultQuestion   = "In the event of a flood, how many people might need to be evacuated?"
)

// DefaultThresholds are the flood depths in metres that open each band.
func DefaultThresholds() Thresholds {
	return Thresholds{0.3, 0.5, 1.0}
}

// Parameters configures Assess. Zero fields fall back to the defaults.
type Parameters struct {
	Thresholds   Thresholds
	MinimumNeeds []MinimumNeed
	Classes      int
	Question     string
	HazardUnit   string
}

// DefaultParameters returns the flood evacuation defaults.
func DefaultParameters() Parameters {
	return Parameters{
		Thresholds:   DefaultThresholds(),
		MinimumNeeds: DefaultMinimumNeeds(),
		Classes:      DefaultClasses,
		Question:     DefaultQuestion,
		HazardUnit:   DefaultHazardUnit,
	}
}

func (p Parameters) withDefaults() Parameters {
	d := DefaultParameters()
	if len(p.Thresholds) == 0 {
		p.Thresholds = d.Thresholds
	}
	if p.MinimumNeeds == nil {
		p.MinimumNeeds = d.MinimumNeeds
	}
	if p.Classes == 0 {
		p.Classes = d.Classes
	}
	if p.Question == "" {
		p.Question = d.Question
	}
	if p.HazardUnit == "" {
		p.HazardUnit = d.HazardUnit
	}
	return p
}

// Assessment is the full result of a population evacuation assessment.
// Impact and Classes are nil for a zero-impact outcome.
type Assessment struct {
	Status            Status
	Counts            BandCounts
	Thresholds        Thresholds
	Evacuated         int64
	EvacuatedRounding string
	Total             int64
	Needs             NeedsTable
	Classes           []StyleClass
	Impact            *Grid
	Report            report.Table
	AssessedAt        time.Time
}

// Assess classifies the hazard and exposure grids and builds the evacuation
// report. Preconditions are all checked before any output is produced.
func Assess(hazard, exposure *Grid, params Parameters) (Assessment, error) {
	params = params.withDefaults()
	if params.Classes < 1 {
		return Assessment{}, fmt.Errorf("%w: %d", ErrInvalidClassCount, params.Classes)
	}

	result, err := Classify(hazard, exposure, params.Thresholds)
	if err != nil {
		return Assessment{}, err
	}

	counts := result.BandCounts()
	evacuated, rounding := RoundUpFull(counts.Last())
	a := Assessment{
		Counts:            counts,
		Thresholds:        params.Thresholds,
		Evacuated:         evacuated,
		EvacuatedRounding: rounding,
		Total:             RoundUpCoarse(result.TotalExposure()),
		Needs:             ComputeNeeds(evacuated, params.MinimumNeeds),
		AssessedAt:        clock.Now().UTC(),
	}

	switch r := result.(type) {
	case *ZeroImpact:
		a.Status = StatusZeroImpact
		a.Report = zeroImpactReport(a, params)
	case *Impacted:
		classes, err := BuildClasses(r.Impact.Values(), params.Classes)
		if err != nil {
			return Assessment{}, err
		}
		a.Status = StatusImpact
		a.Impact = r.Impact
		a.Classes = classes
		a.Report = impactReport(a, params)
	}
	return a, nil
}

func headline(params Parameters) report.Text {
	return report.Textf("People in", depth(params.Thresholds.top(), params.HazardUnit), "of water")
}

func depth(v float64, unit string) string {
	return fmt.Sprintf("%.1f %s", v, unit)
}

func (t Thresholds) top() float64 {
	return t[len(t)-1]
}

func zeroImpactReport(a Assessment, params Parameters) report.Table {
	return report.Table{Rows: []report.Row{
		report.DataRow(params.Question),
		{Cells: []report.Text{headline(params), report.Plain(humanize.Comma(a.Evacuated))}, Header: true},
	}}
}

func impactReport(a Assessment, params Parameters) report.Table {
	rows := []report.Row{
		report.DataRow(params.Question),
		{Cells: []report.Text{headline(params), report.Plain(humanize.Comma(a.Evacuated) + "*")}, Header: true},
		report.DataRow("* Number is rounded up to the nearest " + a.EvacuatedRounding),
		report.DataRow("Map shows the numbers of people needing evacuation"),
		report.DataRow("Table below shows the weekly minimum needs for all evacuated people"),
	}

	for _, group := range a.Needs {
		rows = append(rows, report.HeaderRow("Needs should be provided "+group.Frequency, "Total"))
		for _, r := range group.Resources {
			rows = append(rows, report.DataRow(r.TableName, humanize.Comma(r.Amount)))
		}
	}

	rows = append(rows,
		report.HeaderRow("Action Checklist:"),
		report.DataRow("How will warnings be disseminated?"),
		report.DataRow("How will we reach stranded people?"),
		report.DataRow("Do we have enough relief items?"),
		report.DataRow("If yes, where are they located and how will we distribute them?"),
		report.DataRow("If no, where can we obtain additional relief items from and how will we transport them to here?"),
		report.HeaderRow("Notes"),
		report.DataRow("Total population: "+humanize.Comma(a.Total)),
		report.Row{Cells: []report.Text{report.Textf(
			"People need evacuation if flood levels exceed", depth(params.Thresholds.top(), params.HazardUnit))}},
		report.DataRow("Minimum needs are defined in BNPB regulation 7/2008"),
		report.DataRow("All values are rounded up to the nearest integer in order to avoid representing human lives as fractions."),
		report.DataRow("All affected people are assumed to be evacuated."),
	)

	if len(a.Counts) > 1 {
		rows = append(rows, report.HeaderRow("Detailed breakdown"))
		t := params.Thresholds
		for i, n := range a.Counts {
			var line string
			if i == len(t)-1 {
				line = fmt.Sprintf("People in >= %s of water: %s", depth(t[i], params.HazardUnit), humanize.Comma(n))
			} else {
				line = fmt.Sprintf("People in %.1f %s to %s of water: %s",
					t[i], params.HazardUnit, depth(t[i+1], params.HazardUnit), humanize.Comma(n))
			}
			rows = append(rows, report.DataRow(line))
		}
	}
	return report.Table{Rows: rows}
}

// Result flattens the assessment into the sink message payload with the
// report rendered both as plain text and HTML.
func (a Assessment) Result(id string) AssessmentResult {
	return AssessmentResult{
		ID:                id,
		Status:            a.Status,
		Counts:            a.Counts,
		Thresholds:        a.Thresholds,
		Evacuated:         a.Evacuated,
		EvacuatedRounding: a.EvacuatedRounding,
		Total:             a.Total,
		Needs:             a.Needs,
		Classes:           a.Classes,
		ReportText:        report.RenderText(a.Report),
		ReportHTML:        report.RenderHTML(a.Report),
		AssessedAt:        a.AssessedAt,
	}
}
