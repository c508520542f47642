package insights

import (
	"fmt"
	"strings"

	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
)

// Disclaimers are always present in generated commentary. The service
// prepends the localized line when the model omits it.
const (
	disclaimerEnglish = "This analysis is for educational purposes only and is not financial or investment advice."
	disclaimerArabic  = "هذا التحليل لأغراض تعليمية فقط وليس نصيحة مالية أو استثمارية."
)

// Disclaimer returns the localized educational disclaimer.
func Disclaimer(lang models.Language) string {
	if lang == models.LanguageArabic {
		return disclaimerArabic
	}
	return disclaimerEnglish
}

// analystSystemPrompt is the base persona for commentary generation.
const analystSystemPrompt = `You are an analytics tutor for an educational analytics platform. You explain computed technical indicators and marketing KPIs to learners.

Rules:
1. Only discuss the figures provided in the request. Never invent numbers.
2. Never give actionable financial advice or tell the reader to buy or sell. You may explain what a computed signal means in general terms.
3. Open your response with this exact disclaimer line: %s
4. Write in plain language a student can follow.`

// styleConcise and styleDetailed instruct response length.
const (
	styleConcise  = "Respond with a single paragraph of 3 to 5 sentences."
	styleDetailed = "Respond with short titled sections covering each group of figures, followed by a brief conclusion. Use Markdown headings."
)

func buildSystemPrompt(lang models.Language, style models.Style) string {
	var b strings.Builder
	fmt.Fprintf(&b, analystSystemPrompt, Disclaimer(lang))
	b.WriteString("\n\n")

	if style == models.StyleDetailed {
		b.WriteString(styleDetailed)
	} else {
		b.WriteString(styleConcise)
	}

	if lang == models.LanguageArabic {
		b.WriteString("\nRespond in Arabic.")
	} else {
		b.WriteString("\nRespond in English.")
	}

	return b.String()
}

// ChatSystemPrompt is the persona for conversational questions. The scope
// restriction backs up the keyword topic gate.
func ChatSystemPrompt(lang models.Language) string {
	var b strings.Builder
	b.WriteString(`You are an analytics tutor answering questions about stock market indicators and marketing campaign KPIs. Stay within those topics; politely decline anything else. Never give actionable financial advice. Do not invent data you were not given.`)
	if lang == models.LanguageArabic {
		b.WriteString("\nRespond in Arabic.")
	} else {
		b.WriteString("\nRespond in English.")
	}
	return b.String()
}

// fmtMetric renders a metric value or "n/a" when undefined.
func fmtMetric(m models.Metric, decimals int, suffix string) string {
	if !m.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.*f%s", decimals, m.Value, suffix)
}

// renderTradingFacts flattens computed indicator output into prompt lines.
// Only scalar figures cross this boundary, never the underlying series.
func renderTradingFacts(f *interfaces.TradingFacts) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s\n", f.Symbol)
	fmt.Fprintf(&b, "Period: %s\n", f.Period)

	if f.Stats != nil {
		fmt.Fprintf(&b, "Bars analyzed: %d\n", f.Stats.Bars)
		fmt.Fprintf(&b, "Current price: %.2f\n", f.Stats.CurrentPrice)
		fmt.Fprintf(&b, "Change over period: %+.2f%%\n", f.Stats.ChangePct)
		fmt.Fprintf(&b, "Highest close: %.2f, lowest close: %.2f\n", f.Stats.HighestClose, f.Stats.LowestClose)
	}

	if f.Indicators != nil {
		latest := f.Indicators.Latest
		fmt.Fprintf(&b, "RSI: %s\n", fmtMetric(latest.RSI, 2, ""))
		fmt.Fprintf(&b, "MACD: %s (signal %s, histogram %s)\n",
			fmtMetric(latest.MACD, 4, ""),
			fmtMetric(latest.MACDSignal, 4, ""),
			fmtMetric(latest.MACDHistogram, 4, ""))
		fmt.Fprintf(&b, "Short moving average: %s\n", fmtMetric(latest.ShortMA, 2, ""))
		fmt.Fprintf(&b, "Long moving average: %s\n", fmtMetric(latest.LongMA, 2, ""))
		if f.Indicators.Volatility.Defined {
			fmt.Fprintf(&b, "Annualized volatility: %.1f%%\n", f.Indicators.Volatility.Value*100)
		}
	}

	if f.Trend != nil {
		fmt.Fprintf(&b, "Computed trend: %s (signal %s, %s risk)\n", f.Trend.Trend, f.Trend.Signal, f.Trend.Risk)
	}

	return b.String()
}

// renderMarketingFacts flattens computed KPI output into prompt lines.
func renderMarketingFacts(f *interfaces.MarketingFacts) string {
	var b strings.Builder

	if f.KPIs != nil {
		fmt.Fprintf(&b, "Campaigns: %d\n", len(f.KPIs.Records))
		fmt.Fprintf(&b, "Total budget: %.2f, total revenue: %.2f, total profit: %.2f\n",
			f.KPIs.TotalBudget, f.KPIs.TotalRevenue, f.KPIs.TotalProfit)
		fmt.Fprintf(&b, "Total clicks: %.0f, total conversions: %.0f\n",
			f.KPIs.TotalClicks, f.KPIs.TotalConversions)
		fmt.Fprintf(&b, "Overall ROI: %s\n", fmtMetric(f.KPIs.OverallROI, 2, "%"))
		fmt.Fprintf(&b, "Overall conversion rate: %s\n", fmtMetric(f.KPIs.OverallConversionRate, 2, "%"))

		for _, rec := range f.KPIs.Records {
			fmt.Fprintf(&b, "- %s: ROI %s, conversion rate %s, cost per conversion %s, profit %.2f\n",
				rec.Name,
				fmtMetric(rec.ROI, 2, "%"),
				fmtMetric(rec.ConversionRate, 2, "%"),
				fmtMetric(rec.CostPerConversion, 2, ""),
				rec.Profit)
		}

		for _, w := range f.KPIs.Warnings {
			fmt.Fprintf(&b, "Warning: %s\n", w)
		}
	}

	if f.Ranking != nil {
		if r := f.Ranking.BestROI; r != nil {
			fmt.Fprintf(&b, "Best ROI: %s (%.2f%%)\n", r.Name, r.Value)
		}
		if r := f.Ranking.WorstROI; r != nil {
			fmt.Fprintf(&b, "Worst ROI: %s (%.2f%%)\n", r.Name, r.Value)
		}
		if r := f.Ranking.BestConversionRate; r != nil {
			fmt.Fprintf(&b, "Best conversion rate: %s (%.2f%%)\n", r.Name, r.Value)
		}
		if r := f.Ranking.MostProfitable; r != nil {
			fmt.Fprintf(&b, "Most profitable: %s (%.2f)\n", r.Name, r.Value)
		}
	}

	if f.Summary != nil {
		fmt.Fprintf(&b, "Budget spread: min %.2f, median %.2f, max %.2f\n",
			f.Summary.Budget.Min, f.Summary.Budget.Median, f.Summary.Budget.Max)
		fmt.Fprintf(&b, "Revenue spread: min %.2f, median %.2f, max %.2f\n",
			f.Summary.Revenue.Min, f.Summary.Revenue.Median, f.Summary.Revenue.Max)
	}

	return b.String()
}

// buildUserPrompt produces the user-turn content for an insight request.
func buildUserPrompt(req *interfaces.InsightRequest) (string, error) {
	switch req.Kind {
	case models.AnalysisTrading:
		if req.Trading == nil {
			return "", fmt.Errorf("trading facts are required for a trading insight")
		}
		return "Explain the following stock analysis results to a learner:\n\n" + renderTradingFacts(req.Trading), nil
	case models.AnalysisMarketing:
		if req.Marketing == nil {
			return "", fmt.Errorf("marketing facts are required for a marketing insight")
		}
		return "Explain the following campaign KPI results to a learner:\n\n" + renderMarketingFacts(req.Marketing), nil
	default:
		return "", fmt.Errorf("unknown analysis kind %q", req.Kind)
	}
}

// buildSummaryPrompt produces the prompt pair for an executive summary over
// an assembled bundle.
func buildSummaryPrompt(bundle *models.AnalysisBundle, lang models.Language) (string, string) {
	var facts strings.Builder

	if bundle.Indicators != nil || bundle.Stats != nil {
		facts.WriteString(renderTradingFacts(&interfaces.TradingFacts{
			Symbol:     bundle.Symbol,
			Period:     bundle.Period,
			Indicators: bundle.Indicators,
			Trend:      bundle.Trend,
			Stats:      bundle.Stats,
		}))
		facts.WriteString("\n")
	}

	if bundle.KPIs != nil {
		facts.WriteString(renderMarketingFacts(&interfaces.MarketingFacts{
			KPIs:    bundle.KPIs,
			Ranking: bundle.Ranking,
			Summary: bundle.Summary,
		}))
	}

	system := buildSystemPrompt(lang, models.StyleConcise)
	user := "Write a short executive summary of the following analysis results:\n\n" + facts.String()
	return system, user
}
