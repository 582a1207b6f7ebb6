// Package entities contains the core domain objects for the riverflow application
package entities

import (
	"encoding/json"
	"fmt"
)

// Station is a hydrometric monitoring station as listed by the API
type Station struct {
	Province          string      `json:"province"`
	OperationalStatus string      `json:"operations"`
	Name              string      `json:"name"`
	Coordinates       Coordinates `json:"latlng"`
	SixHourDataFlag   string      `json:"6hrs_data"`
	ID                string      `json:"id"`
}

// Coordinates is a station position, encoded on the wire as [lat, lng]
type Coordinates struct {
	Lat float64
	Lng float64
}

// UnmarshalJSON decodes a two element [lat, lng] array
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("latlng: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("latlng: expected 2 values, got %d", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes the coordinates back into the [lat, lng] wire shape
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{c.Lat, c.Lng})
}

// Match is a station that matched a search, numbered for display
type Match struct {
	Index int    // 1-based position in the displayed list
	ID    string // Station ID used for flow queries
	Name  string // Station name as listed
}
