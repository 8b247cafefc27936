package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MarketScout/internal/model"
)

// DigestEntry is one symbol of a watchlist digest.
type DigestEntry struct {
	Symbol string
	Report model.AnalysisReport
}

func trendIcon(t model.Trend) string {
	switch t {
	case model.TrendBullish:
		return "🟢"
	case model.TrendBearish:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatAnalysisReport formats a single analysis into a Telegram message.
func FormatAnalysisReport(symbol string, rep model.AnalysisReport) string {
	var b strings.Builder
	sym := html.EscapeString(symbol)
	if rep.Failed() || rep.Analysis == nil {
		b.WriteString(fmt.Sprintf("❌ <b>%s</b>: %s\n", sym, html.EscapeString(rep.Error)))
		if n := len(rep.Steps); n > 0 {
			b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(rep.Steps[n-1])))
		}
		return b.String()
	}

	a := rep.Analysis
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", sym, time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", a.CurrentPrice))
	b.WriteString(fmt.Sprintf("Trend: %s %s (confidence %.0f%%)\n", trendIcon(a.TrendBias), a.TrendBias, a.ConfidenceScore*100))
	b.WriteString(fmt.Sprintf("RSI(14): %.2f\n", a.RSI))
	b.WriteString(fmt.Sprintf("Risk: %s\n", html.EscapeString(a.RiskLevel.String())))
	b.WriteString(fmt.Sprintf("Volatility range: %.2f - %.2f\n", a.VolatilityRange.Lower, a.VolatilityRange.Upper))
	return b.String()
}

// FormatDigest formats the scheduled watchlist summary, one line per symbol.
func FormatDigest(entries []DigestEntry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗞 <b>MarketScout daily digest</b> | %s\n\n", time.Now().Format("2006-01-02")))
	failed := 0
	for _, e := range entries {
		sym := html.EscapeString(e.Symbol)
		if e.Report.Failed() || e.Report.Analysis == nil {
			failed++
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", sym, html.EscapeString(e.Report.Error)))
			continue
		}
		a := e.Report.Analysis
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %.2f | %s | RSI %.0f | %s\n",
			trendIcon(a.TrendBias), sym, a.CurrentPrice, a.TrendBias, a.RSI,
			html.EscapeString(a.RiskLevel.String())))
	}
	if failed > 0 {
		b.WriteString(fmt.Sprintf("\n%d of %d symbols could not be analyzed.", failed, len(entries)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /analyze SYMBOL - run an analysis now\n" +
		"• /watchlist - analyze the whole watchlist\n" +
		"• /help - this message"
}
