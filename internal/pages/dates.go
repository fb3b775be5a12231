package pages

import (
	"fmt"
	"time"
)

// pt-BR abbreviated month names.
var months = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatDate renders t as "dd MMM yyyy" with pt-BR month names, in UTC.
// A missing date renders as the empty string.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	u := t.UTC()
	return fmt.Sprintf("%02d %s %04d", u.Day(), months[u.Month()-1], u.Year())
}

func DateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
