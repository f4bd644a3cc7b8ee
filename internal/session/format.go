package session

import (
	"time"
	_ "time/tzdata"

	"real4d-backend/internal/models"
)

const dateLayout = "02/01/2006, 15:04"

var statusLabels = map[string]string{
	models.StatusAwaitingEvidence:  "Aguardando prints",
	models.StatusEvidenceSubmitted: "Análise em andamento",
	models.StatusAnalysisComplete:  "Análise concluída",
	models.StatusRefunded:          "Reembolsado",
}

var statusClasses = map[string]string{
	models.StatusAwaitingEvidence:  "status-aguardando",
	models.StatusEvidenceSubmitted: "status-enviado",
	models.StatusAnalysisComplete:  "status-concluido",
	models.StatusRefunded:          "status-reembolsado",
}

// StatusLabel falls back to the raw status for values it does not know.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func StatusClass(status string) string {
	return statusClasses[status]
}

// FormatDate renders t in loc as dd/mm/yyyy, hh:mm. A nil loc means UTC.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// FormatISODate parses an RFC 3339 timestamp and formats it like FormatDate.
// Unparseable input is returned unchanged.
func FormatISODate(iso string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return iso
	}
	return FormatDate(t, loc)
}

// LoadLocation resolves name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
