package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"QuoteKeeper/internal/model"
)

// FormatRunReport formats a run summary into a Telegram message.
func FormatRunReport(r *model.RunReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>QuoteKeeper</b> | %s | %s\n\n",
		r.StartedAt.Format("2006-01-02 15:04"), r.Trigger))
	b.WriteString(fmt.Sprintf("Stored: %d/%d | Skipped: %d | Store failed: %d\n",
		r.Count(model.OutcomeStored), len(r.Results),
		r.Count(model.OutcomeSkipped), r.Count(model.OutcomeStoreFailed)))
	b.WriteString(fmt.Sprintf("Duration: %s\n\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second)))

	for _, res := range r.Results {
		switch res.Outcome {
		case model.OutcomeStored:
			o := res.Observation
			b.WriteString(fmt.Sprintf("✅ %s %s %s (%s)\n",
				html.EscapeString(res.Symbol), html.EscapeString(o.CompanyName),
				o.Price.StringFixed(2), html.EscapeString(o.Change)))
		case model.OutcomeStoreFailed:
			b.WriteString(fmt.Sprintf("💾 %s not stored: %s\n",
				html.EscapeString(res.Symbol), html.EscapeString(res.Reason)))
		default:
			b.WriteString(fmt.Sprintf("⚠️ %s skipped: %s\n",
				html.EscapeString(res.Symbol), html.EscapeString(res.Reason)))
		}
	}
	return b.String()
}

// FormatStatus formats the latest run and the next due trigger.
func FormatStatus(latest *model.RunReport, state string, next time.Time) string {
	var b strings.Builder
	b.WriteString("📦 <b>QuoteKeeper status</b>\n\n")
	b.WriteString(fmt.Sprintf("Scheduler: %s\n", state))
	if !next.IsZero() {
		b.WriteString(fmt.Sprintf("Next run: %s\n", next.Format("2006-01-02 15:04")))
	}
	if latest == nil {
		b.WriteString("No run yet\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Last run: %s (%d/%d stored)\n",
		latest.FinishedAt.Format("2006-01-02 15:04"),
		latest.Count(model.OutcomeStored), len(latest.Results)))
	return b.String()
}
