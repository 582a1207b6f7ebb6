package integration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abelzeko/riverflow/internal/entities"
	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

const stationListJSON = `{
  "code": 200,
  "details": "Success",
  "message": [
    {"province":"AB","operations":"Active","name":"BOW RIVER AT BANFF","latlng":[51.17222,-115.57194],"6hrs_data":"Y","id":"05BB001"},
    {"province":"AB","operations":"Active","name":"ELBOW RIVER AT BRAGG CREEK","latlng":[50.94917,-114.57056],"6hrs_data":"N","id":"05BJ004"},
    {"province":"AB","operations":"Discontinued","name":"OLDMAN RIVER NEAR LETHBRIDGE","latlng":[49.70361,-112.86417],"6hrs_data":"Y","id":"05AD007"}
  ]
}`

func TestParseStationList(t *testing.T) {
	stations, err := ParseStationList(stationListJSON)
	require.NoError(t, err)
	require.Len(t, stations, 3)

	require.Equal(t, entities.Station{
		Province:          "AB",
		OperationalStatus: "Active",
		Name:              "BOW RIVER AT BANFF",
		Coordinates:       entities.Coordinates{Lat: 51.17222, Lng: -115.57194},
		SixHourDataFlag:   "Y",
		ID:                "05BB001",
	}, stations[0])
	require.Equal(t, "05BJ004", stations[1].ID)
	require.Equal(t, "N", stations[1].SixHourDataFlag)
	require.Equal(t, "Discontinued", stations[2].OperationalStatus)
	require.Equal(t, "OLDMAN RIVER NEAR LETHBRIDGE", stations[2].Name)
}

func TestParseStationListErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code string
	}{
		{"malformed", `{"code":200,"message":[`, apperrors.CodeDecode},
		{"wrong type", `{"code":200,"message":{"history":[]}}`, apperrors.CodeDecode},
		{"missing message", `{"code":200,"details":"ok"}`, apperrors.CodeDecode},
		{"bad latlng", `{"code":200,"message":[{"name":"X","latlng":[1],"id":"1"}]}`, apperrors.CodeDecode},
		{"api error", `{"code":401,"details":"invalid key","message":[]}`, apperrors.CodeAPIStatus},
		{"renamed fields", `{"code":200,"message":[{"nom":"BOW RIVER","latlng":[1,2]}]}`, apperrors.CodeDecode},
		{"null latlng", `{"code":200,"message":[{"province":"AB","operations":"Active","name":"X","latlng":null,"6hrs_data":"Y","id":"1"}]}`, apperrors.CodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStationList(tt.text)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseStationListRequiresEveryField(t *testing.T) {
	fields := map[string]string{
		"province":   `"AB"`,
		"operations": `"Active"`,
		"name":       `"BOW RIVER AT BANFF"`,
		"latlng":     `[51.17,-115.57]`,
		"6hrs_data":  `"Y"`,
		"id":         `"05BB001"`,
	}
	for missing := range fields {
		t.Run(missing, func(t *testing.T) {
			var parts []string
			for k, v := range fields {
				if k != missing {
					parts = append(parts, fmt.Sprintf("%q:%s", k, v))
				}
			}
			text := `{"code":200,"message":[{` + strings.Join(parts, ",") + `}]}`

			_, err := ParseStationList(text)
			require.True(t, apperrors.IsCode(err, apperrors.CodeDecode), "got %v", err)
			require.ErrorContains(t, err, fmt.Sprintf("missing field %q", missing))
		})
	}
}

func TestParseStationListAPIErrorCarriesDetails(t *testing.T) {
	_, err := ParseStationList(`{"code":401,"details":"invalid key","message":null}`)
	require.ErrorContains(t, err, "invalid key")
}

func TestParseFlowHistory(t *testing.T) {
	text := `{"code":200,"details":"Success","message":{"startDate":"2024-01-01","endDate":"2024-01-02","unit":"m³/s","history":[{"date":"2024-01-01","value":"12.3"},{"date":"2024-01-02","value":"14.0"}]}}`

	series, err := ParseFlowHistory(text)
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", series.StartDate)
	require.Equal(t, "2024-01-02", series.EndDate)
	require.Equal(t, "m³/s", series.Unit)
	require.Equal(t, []entities.FlowReading{
		{Date: "2024-01-01", Value: "12.3"},
		{Date: "2024-01-02", Value: "14.0"},
	}, series.History)

	latest, ok := series.Latest()
	require.True(t, ok)
	require.Equal(t, entities.FlowReading{Date: "2024-01-02", Value: "14.0"}, latest)
}

func TestParseFlowHistoryEmpty(t *testing.T) {
	series, err := ParseFlowHistory(`{"code":0,"details":"","message":{"startDate":"2024-01-01","endDate":"2024-01-02","unit":"","history":[]}}`)
	require.NoError(t, err)
	_, ok := series.Latest()
	require.False(t, ok)
}

func TestParseFlowHistoryErrors(t *testing.T) {
	_, err := ParseFlowHistory(`not json`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecode))

	_, err = ParseFlowHistory(`{"code":200,"message":[]}`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecode))

	_, err = ParseFlowHistory(`{"code":200}`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecode))

	_, err = ParseFlowHistory(`{"code":200,"message":{"startDate":"2024-01-01","hist":[{"date":"2024-01-02","value":"14.0"}]}}`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecode))
	require.ErrorContains(t, err, `missing field "history"`)

	_, err = ParseFlowHistory(`{"code":200,"message":{"history":[{"date":"2024-01-02"}]}}`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecode))
	require.ErrorContains(t, err, `missing field "value"`)

	_, err = ParseFlowHistory(`{"code":200,"message":{"history":[{"value":"14.0"}]}}`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecode))
	require.ErrorContains(t, err, `missing field "date"`)

	_, err = ParseFlowHistory(`{"code":500,"details":"station offline"}`)
	require.True(t, apperrors.IsCode(err, apperrors.CodeAPIStatus))
	require.ErrorContains(t, err, "station offline")
}
