// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abelzeko/riverflow/internal/entities"
	"github.com/abelzeko/riverflow/internal/integration"
	"github.com/abelzeko/riverflow/internal/repository"
	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

// DateLayout is the date format used by the flow endpoint
const DateLayout = "2006-01-02"

// FlowSource fetches raw documents from the hydrometric API
type FlowSource interface {
	FetchStationList(ctx context.Context) (string, error)
	FetchFlowHistory(ctx context.Context, stationID, startDate, endDate string) (string, error)
}

var _ FlowSource = (*integration.FlowClient)(nil)

// FlowUseCase handles business logic related to stations and flow readings
type FlowUseCase struct {
	source FlowSource
	repo   repository.LookupRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewFlowUseCase creates a new flow use case. repo may be nil, which disables lookup history.
func NewFlowUseCase(source FlowSource, repo repository.LookupRepository, logger *slog.Logger) *FlowUseCase {
	return &FlowUseCase{
		source: source,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the clock used to compute the query date range
func (uc *FlowUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// LoadStations fetches and decodes the full station list
func (uc *FlowUseCase) LoadStations(ctx context.Context) ([]entities.Station, error) {
	text, err := uc.source.FetchStationList(ctx)
	if err != nil {
		return nil, err
	}
	stations, err := integration.ParseStationList(text)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("loaded station list", "stations", len(stations))
	return stations, nil
}

// Search filters stations by name, see SearchStations
func (uc *FlowUseCase) Search(stations []entities.Station, query string) []entities.Match {
	matches := SearchStations(stations, query)
	uc.logger.Debug("searched stations", "query", query, "matches", len(matches))
	return matches
}

// SearchStations returns the stations whose upper-cased name contains the
// trimmed, upper-cased query, in list order and numbered from 1.
// An empty query matches every station.
func SearchStations(stations []entities.Station, query string) []entities.Match {
	needle := strings.ToUpper(strings.TrimSpace(query))
	var matches []entities.Match
	for _, st := range stations {
		if strings.Contains(strings.ToUpper(st.Name), needle) {
			matches = append(matches, entities.Match{
				Index: len(matches) + 1,
				ID:    st.ID,
				Name:  st.Name,
			})
		}
	}
	return matches
}

// FindStation returns the station with the given id
func FindStation(stations []entities.Station, id string) (entities.Station, bool) {
	for _, st := range stations {
		if st.ID == id {
			return st, true
		}
	}
	return entities.Station{}, false
}

// QueryRange returns yesterday and today in the local zone of now
func QueryRange(now time.Time) (startDate, endDate string) {
	return now.AddDate(0, 0, -1).Format(DateLayout), now.Format(DateLayout)
}

// LatestReading fetches yesterday-to-today flow history for the station and
// returns its last reading. An empty history yields a no_data error.
func (uc *FlowUseCase) LatestReading(ctx context.Context, match entities.Match) (entities.LatestReading, error) {
	now := uc.now()
	startDate, endDate := QueryRange(now)

	text, err := uc.source.FetchFlowHistory(ctx, match.ID, startDate, endDate)
	if err != nil {
		return entities.LatestReading{}, err
	}
	series, err := integration.ParseFlowHistory(text)
	if err != nil {
		return entities.LatestReading{}, err
	}

	reading, ok := series.Latest()
	if !ok {
		uc.logger.Info("empty flow history", "station_id", match.ID, "start", startDate, "end", endDate)
		return entities.LatestReading{}, apperrors.Wrap(apperrors.CodeNoData,
			fmt.Sprintf("no flow data available for %s between %s and %s", match.Name, startDate, endDate), nil)
	}

	latest := entities.LatestReading{
		StationID:   match.ID,
		StationName: match.Name,
		Unit:        series.Unit,
		Reading:     reading,
	}
	uc.record(latest, now)
	return latest, nil
}

// record appends the reading to the lookup history; failures are only logged
func (uc *FlowUseCase) record(latest entities.LatestReading, at time.Time) {
	if uc.repo == nil {
		return
	}
	err := uc.repo.SaveLookup(entities.Lookup{
		StationID:   latest.StationID,
		StationName: latest.StationName,
		Date:        latest.Reading.Date,
		Value:       string(latest.Reading.Value),
		Unit:        latest.Unit,
		LookedUpAt:  at,
	})
	if err != nil {
		uc.logger.Warn("failed to record lookup", "station_id", latest.StationID, "err", err)
	}
}

// RecentLookups returns the most recent recorded lookups
func (uc *FlowUseCase) RecentLookups(limit int) ([]entities.Lookup, error) {
	if uc.repo == nil {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "lookup history is disabled; set RIVERFLOW_HISTORY_DB", nil)
	}
	return uc.repo.RecentLookups(limit)
}
