package catalog

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display placeholders.
const (
	NoMoney    = "N/D"
	NoCount    = "—"
	NoDate     = "Fecha no disponible"
	NoBio      = "Sin biografía"
	NoEvent    = "Evento"
	NoVenue    = "Venue"
	NoCity     = "Ciudad"
	NoConcerts = "No hay conciertos programados para este artista."
)

// Status labels.
const (
	StatusConfirmed = "Confirmado"
	StatusPlanned   = "Planeado"
)

// DisplayLanguage is the locale numbers are formatted in.
var DisplayLanguage = language.MustParse("es-MX")

var monthAbbrev = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// ClassifyStatus maps a free-form status to its display label: anything
// containing "confirm" is Confirmado, anything containing "plan" is
// Planeado, and other values are shown as-is.
func ClassifyStatus(status string) string {
	lower := strings.ToLower(status)
	switch {
	case status == "":
		return ""
	case strings.Contains(lower, "confirm"):
		return StatusConfirmed
	case strings.Contains(lower, "plan"):
		return StatusPlanned
	default:
		return status
	}
}

// FormatMoney renders an amount as es-MX currency. Missing or zero amounts
// render as N/D.
func FormatMoney(amount *float64) string {
	if amount == nil || *amount == 0 {
		return NoMoney
	}
	p := message.NewPrinter(DisplayLanguage)
	return "$" + p.Sprintf("%.2f", *amount)
}

// FormatCount renders an attendance figure with es-MX grouping. Missing or
// zero values render as —.
func FormatCount(n *int) string {
	if n == nil || *n == 0 {
		return NoCount
	}
	p := message.NewPrinter(DisplayLanguage)
	return p.Sprintf("%d", *n)
}

// FormatAmount renders a KPI amount, zero included.
func FormatAmount(amount float64) string {
	p := message.NewPrinter(DisplayLanguage)
	return "$" + p.Sprintf("%.2f", amount)
}

// FormatInt renders a KPI count, zero included.
func FormatInt(n int) string {
	p := message.NewPrinter(DisplayLanguage)
	return p.Sprintf("%d", n)
}

// FormatPercent renders a rate already expressed in percent.
func FormatPercent(rate float64) string {
	p := message.NewPrinter(DisplayLanguage)
	return p.Sprintf("%.1f", rate) + "%"
}

// FormatFecha renders an ISO 8601 date as "20 nov 2025, 20:00" in loc.
// Missing or unparseable dates render as NoDate.
func FormatFecha(fecha string, loc *time.Location) string {
	t, err := ParseFecha(fecha)
	if err != nil {
		return NoDate
	}
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d %s %d, %02d:%02d",
		t.Day(), monthAbbrev[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatCoordinates renders a concert's venue position as "lat, lng" with
// four decimals, or NoCount when it has no usable location.
func FormatCoordinates(c Concert) string {
	if !c.HasLocation() {
		return NoCount
	}
	return fmt.Sprintf("%.4f, %.4f", *c.Latitud, *c.Longitud)
}

// OrDefault returns value, or def when value is blank.
func OrDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
