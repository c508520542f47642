package campaigns

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ternarybob/insightx/internal/models"
)

// MaxRows caps an upload; campaign tables are small by contract.
const MaxRows = 1000

// Accepted headers for the optional campaign-name column.
var nameColumns = []string{"Campaign", "Campaign_Name", "Name"}

// ParseCSV reads an uploaded campaign file into a CampaignTable. The header
// row must contain the required columns (case-sensitive); a name column is
// optional. Malformed numeric cells fail with a ParseError naming the row
// and column.
func (e *Engine) ParseCSV(r io.Reader) (*models.CampaignTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &models.ParseError{Row: 0, Cause: errors.New("file is empty")}
	}
	if err != nil {
		return nil, &models.ParseError{Row: 0, Cause: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	columns, nameIdx, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	table := &models.CampaignTable{}
	row := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &models.ParseError{Row: row, Cause: err}
		}
		if row > MaxRows {
			return nil, &models.ParseError{Row: row, Cause: fmt.Errorf("row limit exceeded (max %d)", MaxRows)}
		}

		record := models.CampaignRecord{}
		if nameIdx >= 0 && nameIdx < len(fields) {
			record.Name = strings.TrimSpace(fields[nameIdx])
		}
		for column, idx := range columns {
			value, err := parseCell(fields, idx)
			if err != nil {
				return nil, &models.ParseError{Row: row, Column: column, Cause: err}
			}
			switch column {
			case models.ColumnBudget:
				record.Budget = value
			case models.ColumnClicks:
				record.Clicks = value
			case models.ColumnConversions:
				record.Conversions = value
			case models.ColumnRevenue:
				record.Revenue = value
			}
		}
		table.Records = append(table.Records, record)
	}

	if table.Len() == 0 {
		return nil, &models.ParseError{Row: 0, Cause: errors.New("no data rows")}
	}

	if e.logger != nil {
		e.logger.Debug().Int("records", table.Len()).Msg("Campaign file parsed")
	}
	return table, nil
}

// mapColumns resolves required column positions and the optional name
// column. Missing required columns produce a SchemaError listing all of
// them.
func mapColumns(header []string) (map[string]int, int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := positions[h]; !seen {
			positions[h] = i
		}
	}

	columns := make(map[string]int, 4)
	var missing []string
	for _, required := range models.RequiredCampaignColumns() {
		idx, ok := positions[required]
		if !ok {
			missing = append(missing, required)
			continue
		}
		columns[required] = idx
	}
	if len(missing) > 0 {
		return nil, -1, &models.SchemaError{Missing: missing}
	}

	nameIdx := -1
	for _, candidate := range nameColumns {
		if idx, ok := positions[candidate]; ok {
			nameIdx = idx
			break
		}
	}
	return columns, nameIdx, nil
}

func parseCell(fields []string, idx int) (float64, error) {
	if idx >= len(fields) {
		return 0, errors.New("missing value")
	}
	cell := strings.TrimSpace(fields[idx])
	if cell == "" {
		return 0, errors.New("empty value")
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	return value, nil
}
