package entities

import (
	"bytes"
	"encoding/json"
	"time"
)

// FlowValue is a flow reading in m³/s, kept as the text the API sent.
// The API does not guarantee numeric formatting, so a bare JSON number
// is accepted too and stored as its literal text.
type FlowValue string

// UnmarshalJSON accepts either a JSON string or a JSON number
func (v *FlowValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = FlowValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*v = FlowValue(n.String())
	return nil
}

// FlowReading is a single dated flow value
type FlowReading struct {
	Date  string    `json:"date"` // YYYY-MM-DD
	Value FlowValue `json:"value"`
}

// FlowSeries is the payload of the flow history endpoint.
// History is ordered oldest first.
type FlowSeries struct {
	StartDate string        `json:"startDate"`
	EndDate   string        `json:"endDate"`
	Unit      string        `json:"unit"`
	History   []FlowReading `json:"history"`
}

// Latest returns the most recent reading. ok is false when the history is empty.
func (s FlowSeries) Latest() (reading FlowReading, ok bool) {
	if len(s.History) == 0 {
		return FlowReading{}, false
	}
	return s.History[len(s.History)-1], true
}

// LatestReading is what gets shown for a selected station
type LatestReading struct {
	StationID   string
	StationName string
	Unit        string
	Reading     FlowReading
}

// Lookup is a recorded display of a station's latest reading
type Lookup struct {
	ID          int64
	StationID   string    // Station that was looked up
	StationName string    // Station name at lookup time
	Date        string    // Reading date, YYYY-MM-DD
	Value       string    // Flow value as displayed
	Unit        string    // Flow unit
	LookedUpAt  time.Time // When the reading was displayed
}
