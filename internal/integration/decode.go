package integration

import (
	"encoding/json"
	"fmt"

	"github.com/abelzeko/riverflow/internal/entities"
	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

// Wire shapes of the two endpoints. Every field is a pointer so that an
// absent key can be told apart from an empty value.
type stationListEnvelope struct {
	Code     int            `json:"code"`
	Details  string         `json:"details"`
	Stations *[]wireStation `json:"message"`
}

type wireStation struct {
	Province          *string               `json:"province"`
	OperationalStatus *string               `json:"operations"`
	Name              *string               `json:"name"`
	Coordinates       *entities.Coordinates `json:"latlng"`
	SixHourDataFlag   *string               `json:"6hrs_data"`
	ID                *string               `json:"id"`
}

type flowHistoryEnvelope struct {
	Code    int         `json:"code"`
	Details string      `json:"details"`
	Data    *wireSeries `json:"message"`
}

type wireSeries struct {
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Unit      string         `json:"unit"`
	History   *[]wireReading `json:"history"`
}

type wireReading struct {
	Date  *string             `json:"date"`
	Value *entities.FlowValue `json:"value"`
}

// successful reports whether an envelope code signals success.
// The API has been seen to answer with 0 and with HTTP-like 2xx codes.
func successful(code int) bool {
	return code == 0 || (code >= 200 && code <= 299)
}

func missingField(what, field string) error {
	return apperrors.Wrap(apperrors.CodeDecode, "decode "+what, fmt.Errorf("missing field %q", field))
}

func (w wireStation) station(i int) (entities.Station, error) {
	what := fmt.Sprintf("station list: station %d", i)
	switch {
	case w.Province == nil:
		return entities.Station{}, missingField(what, "province")
	case w.OperationalStatus == nil:
		return entities.Station{}, missingField(what, "operations")
	case w.Name == nil:
		return entities.Station{}, missingField(what, "name")
	case w.Coordinates == nil:
		return entities.Station{}, missingField(what, "latlng")
	case w.SixHourDataFlag == nil:
		return entities.Station{}, missingField(what, "6hrs_data")
	case w.ID == nil:
		return entities.Station{}, missingField(what, "id")
	}
	return entities.Station{
		Province:          *w.Province,
		OperationalStatus: *w.OperationalStatus,
		Name:              *w.Name,
		Coordinates:       *w.Coordinates,
		SixHourDataFlag:   *w.SixHourDataFlag,
		ID:                *w.ID,
	}, nil
}

// ParseStationList decodes a stations envelope and returns its stations in order.
// Every station field must be present.
func ParseStationList(text string) ([]entities.Station, error) {
	var envelope stationListEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecode, "decode station list", err)
	}
	if !successful(envelope.Code) {
		return nil, apperrors.Wrap(apperrors.CodeAPIStatus, "station list",
			fmt.Errorf("api returned code %d: %s", envelope.Code, envelope.Details))
	}
	if envelope.Stations == nil {
		return nil, missingField("station list", "message")
	}

	stations := make([]entities.Station, 0, len(*envelope.Stations))
	for i, w := range *envelope.Stations {
		st, err := w.station(i)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// ParseFlowHistory decodes a flow envelope and returns its payload.
// An empty history is not an error here; callers check FlowSeries.Latest.
// A missing history is.
func ParseFlowHistory(text string) (entities.FlowSeries, error) {
	var envelope flowHistoryEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return entities.FlowSeries{}, apperrors.Wrap(apperrors.CodeDecode, "decode flow history", err)
	}
	if !successful(envelope.Code) {
		return entities.FlowSeries{}, apperrors.Wrap(apperrors.CodeAPIStatus, "flow history",
			fmt.Errorf("api returned code %d: %s", envelope.Code, envelope.Details))
	}
	if envelope.Data == nil {
		return entities.FlowSeries{}, missingField("flow history", "message")
	}
	if envelope.Data.History == nil {
		return entities.FlowSeries{}, missingField("flow history", "history")
	}

	series := entities.FlowSeries{
		StartDate: envelope.Data.StartDate,
		EndDate:   envelope.Data.EndDate,
		Unit:      envelope.Data.Unit,
		History:   make([]entities.FlowReading, 0, len(*envelope.Data.History)),
	}
	for i, r := range *envelope.Data.History {
		what := fmt.Sprintf("flow history: reading %d", i)
		if r.Date == nil {
			return entities.FlowSeries{}, missingField(what, "date")
		}
		if r.Value == nil {
			return entities.FlowSeries{}, missingField(what, "value")
		}
		series.History = append(series.History, entities.FlowReading{Date: *r.Date, Value: *r.Value})
	}
	return series, nil
}
