package campaigns

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/models"
)

// Engine computes campaign KPIs. Pure computation over an in-memory table;
// safe for concurrent use.
type Engine struct {
	logger   arbor.ILogger
	validate *validator.Validate
}

// NewEngine creates a campaign KPI engine.
func NewEngine(logger arbor.ILogger) *Engine {
	return &Engine{
		logger:   logger,
		validate: validator.New(),
	}
}

// Analyze validates the table and derives the KPI set, rankings and summary
// statistics. Per-record division problems never fail the batch; hard
// validation failures (negative values) do.
func (e *Engine) Analyze(table *models.CampaignTable) (*models.KPISet, *models.Ranking, *models.SummaryStats, error) {
	warnings, err := e.validateTable(table)
	if err != nil {
		return nil, nil, nil, err
	}

	kpis := e.computeKPIs(table)
	kpis.Warnings = warnings
	ranking := rank(kpis)
	summary := summarize(table)

	if e.logger != nil {
		e.logger.Debug().
			Int("records", table.Len()).
			Int("warnings", len(warnings)).
			Msg("Campaign table analyzed")
	}
	return kpis, ranking, summary, nil
}

// validateTable enforces the hard invariants (non-negative inputs) and
// collects soft-invariant warnings (conversions exceeding clicks).
func (e *Engine) validateTable(table *models.CampaignTable) ([]string, error) {
	if table == nil || table.Len() == 0 {
		return nil, &models.SchemaError{Missing: models.RequiredCampaignColumns()}
	}

	var warnings []string
	for i, record := range table.Records {
		if err := e.validate.Struct(record); err != nil {
			var fieldErrors validator.ValidationErrors
			if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
				return nil, fmt.Errorf("validate record %d: %w", i+1, err)
			}
			fe := fieldErrors[0]
			value, _ := fe.Value().(float64)
			return nil, &models.NegativeValueError{Row: i + 1, Column: fe.Field(), Value: value}
		}
		if record.Conversions > record.Clicks {
			warnings = append(warnings, fmt.Sprintf(
				"row %d: conversions (%g) exceed clicks (%g)", i+1, record.Conversions, record.Clicks))
		}
	}
	return warnings, nil
}
