package markethours

import (
	"fmt"
	"time"
)

// ET is the US Eastern time zone used by NYSE/NASDAQ sessions.
var ET = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata unavailable — fall back to EST without DST
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}()

// Regular session in ET.
const (
	OpenHour    = 9
	OpenMinute  = 30
	CloseHour   = 16
	CloseMinute = 0
)

// IsMarketOpen returns true if t falls within the regular NYSE session
// (9:30 AM – 4:00 PM ET, Mon–Fri, excluding holidays).
func IsMarketOpen(t time.Time) bool {
	et := t.In(ET)
	if !IsTradingDay(et) {
		return false
	}
	hm := et.Hour()*60 + et.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon–Fri in ET.
func IsWeekday(t time.Time) bool {
	wd := t.In(ET).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not an exchange holiday.
func IsTradingDay(t time.Time) bool {
	et := t.In(ET)
	return IsWeekday(et) && !IsHoliday(et)
}

// CalendarDaysForBars estimates how many calendar days ending at now are
// needed to contain n trading-day bars. Diagnostic only — the loader's
// retry schedule grows from the observed shortfall, never from this.
func CalendarDaysForBars(now time.Time, n int) int {
	if n <= 0 {
		return 0
	}
	limit := n*3 + 30 // generous cap: weekends + holiday clusters
	d := now.In(ET)
	days, found := 0, 0
	for days < limit && found < n {
		d = d.AddDate(0, 0, -1)
		days++
		if IsTradingDay(d) {
			found++
		}
	}
	return days
}

// TodayClose returns today's session close time (4:00 PM ET).
func TodayClose(t time.Time) time.Time {
	et := t.In(ET)
	return time.Date(et.Year(), et.Month(), et.Day(), CloseHour, CloseMinute, 0, 0, ET)
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		d := TodayClose(t).Sub(t.In(ET))
		return fmt.Sprintf("Market Open — closes in %s", fmtDur(d))
	}
	return "Market Closed"
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
