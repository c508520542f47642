package models

import "time"

// Fact is one labeled value in a report section's key-value table.
type Fact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportTable is a multi-column grid, one row per record.
type ReportTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ReportSection is one ordered block of a report: a title, an optional
// key-value fact table, an optional record grid, and optional prose.
type ReportSection struct {
	Title string       `json:"title"`
	Facts []Fact       `json:"facts,omitempty"`
	Table *ReportTable `json:"table,omitempty"`
	Prose string       `json:"prose,omitempty"`
}

// ReportDocument is the assembled report structure handed to a formatting
// collaborator. Any subset of analysis sections may be present.
type ReportDocument struct {
	Title       string          `json:"title"`
	Language    Language        `json:"language"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    []ReportSection `json:"sections"`
}
