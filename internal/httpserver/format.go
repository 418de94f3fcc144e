package httpserver

import (
	"fmt"
	"strings"
	"time"
)

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var arabicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
)

// arabicDigitsOf rewrites ASCII digits as Arabic-Indic digits.
func arabicDigitsOf(s string) string { return arabicDigits.Replace(s) }

// formatArabicDate renders t as "١ مارس ٢٠٢٥، ٠٩:٣٠ ص" in loc.
func formatArabicDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	period := "ص"
	if t.Hour() >= 12 {
		period = "م"
	}
	s := fmt.Sprintf("%d %s %d، %02d:%02d %s", t.Day(), arabicMonths[t.Month()-1], t.Year(), hour, t.Minute(), period)
	return arabicDigitsOf(s)
}
