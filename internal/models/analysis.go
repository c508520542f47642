package models

import (
	"strings"
	"time"
)

// AnalysisKind tags which engine produced a bundle.
type AnalysisKind string

const (
	AnalysisTrading   AnalysisKind = "trading"
	AnalysisMarketing AnalysisKind = "marketing"
)

// Language selects the commentary output language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// ParseLanguage normalizes a language selector. Empty input defaults to
// English; unknown values fall back to English rather than failing.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ar", "arabic":
		return LanguageArabic
	default:
		return LanguageEnglish
	}
}

// Style selects how long the generated commentary should run.
type Style string

const (
	StyleConcise  Style = "concise"
	StyleDetailed Style = "detailed"
)

// ParseStyle normalizes a response style. Defaults to concise.
func ParseStyle(s string) Style {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "detailed":
		return StyleDetailed
	default:
		return StyleConcise
	}
}

// Insight is generated commentary attached to an analysis.
type Insight struct {
	Text        string    `json:"text"`
	Intent      string    `json:"intent"`
	Language    Language  `json:"language"`
	Style       Style     `json:"style"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// InsightFailure marks commentary that could not be generated. The analysis
// it belongs to is still complete; callers render the numbers and show the
// reason.
type InsightFailure struct {
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AnalysisBundle is the top-level result of one analysis request: indicator
// output for trading, KPI output for marketing, plus optional commentary.
// Computed fresh per request and never mutated after return.
type AnalysisBundle struct {
	ID        string       `json:"id"`
	Kind      AnalysisKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`

	// Trading
	Symbol     string               `json:"symbol,omitempty"`
	Period     Period               `json:"period,omitempty"`
	Indicators *IndicatorSet        `json:"indicators,omitempty"`
	Trend      *TrendClassification `json:"trend,omitempty"`
	Stats      *SeriesStats         `json:"stats,omitempty"`

	// Marketing
	KPIs    *KPISet       `json:"kpis,omitempty"`
	Ranking *Ranking      `json:"ranking,omitempty"`
	Summary *SummaryStats `json:"summary,omitempty"`

	Insight        *Insight        `json:"insight,omitempty"`
	InsightFailure *InsightFailure `json:"insight_failure,omitempty"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one utterance in a conversation.
type ChatTurn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is the explicit conversation-context object: an append-only
// ordered sequence of turns owned by one session. Passed by reference into
// prompt building; never ambient global state.
type ChatSession struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Turns     []ChatTurn `json:"turns"`
}

// Append adds a turn and bumps the session timestamp.
func (s *ChatSession) Append(role, text string, lang Language) {
	now := time.Now()
	s.Turns = append(s.Turns, ChatTurn{Role: role, Text: text, Language: lang, CreatedAt: now})
	s.UpdatedAt = now
}

// Recent returns up to n of the latest turns in order.
func (s *ChatSession) Recent(n int) []ChatTurn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}
