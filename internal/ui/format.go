package ui

import (
	"fmt"
	"time"

	"github.com/pingdeck/pingdeck/internal/tower"
)

// notAvailable is what absent optional metrics render as. The data
// model keeps them as nil pointers; this is the only place the fallback
// text exists.
const notAvailable = "n/a"

func formatMillis(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2fs", v/1000)
	}
	return fmt.Sprintf("%.0fms", v)
}

func formatOptionalMillis(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return formatMillis(*v)
}

func formatOptionalDays(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.0fd", *v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func statusText(svc tower.ServiceStatus) string {
	if svc.IsOnline {
		return "OK"
	}
	return "CRIT"
}

func probeCodeText(code int) string {
	switch code {
	case 1:
		return "ok"
	case 2:
		return "warn"
	case 3:
		return "crit"
	default:
		return "unknown"
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
