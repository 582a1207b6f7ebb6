package api

import (
	"fmt"
	"strings"

	"github.com/abelzeko/riverflow/internal/entities"
)

// DefaultUnit is shown when the API omits the flow unit
const DefaultUnit = "m³/s"

// FormatMatches renders a numbered match list, one "[i] NAME" per line
func FormatMatches(matches []entities.Match) string {
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "[%d] %s\n", m.Index, m.Name)
	}
	return b.String()
}

// FormatReading renders the latest reading of a station
func FormatReading(stationName string, reading entities.FlowReading, unit string) string {
	if strings.TrimSpace(unit) == "" {
		unit = DefaultUnit
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Station: %s\n", stationName)
	fmt.Fprintf(&b, "Date:    %s\n", reading.Date)
	fmt.Fprintf(&b, "Flow:    %s %s\n", reading.Value, unit)
	return b.String()
}
