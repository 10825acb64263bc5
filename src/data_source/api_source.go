package datasource

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"sensor-etl/src/logger"
	"sensor-etl/src/models"
	"sensor-etl/src/network"
	"sensor-etl/src/utils"

	"github.com/relvacode/iso8601"
)

// APISource extracts one calendar day of readings from the readings service.
type APISource struct {
	Client  *network.Client
	BaseURL string
	Signals []string
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAPISource(client *network.Client, baseURL string, signals []string, log *logger.Logger) *APISource {
	return &APISource{
		Client:  client,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Signals: append([]string(nil), signals...),
		Logger:  log,
	}
}

// Name returns the unique identifier of the source
func (s *APISource) Name() string {
	return "api:" + s.BaseURL
}

// -----------------------------------------------------------------------------

// ExtractDay fetches readings for day (YYYY-MM-DD) and keeps only those whose
// UTC calendar date is that day; the service range is inclusive and callers
// may store local offsets, so the result is re-checked here.
//
// On any transport or status failure the result is an empty, non-nil slice
// together with the classified error; callers treat it as a day without data.
func (s *APISource) ExtractDay(ctx context.Context, day string) ([]models.MRawReading, error) {
	date, err := utils.ParseDay(day)
	if err != nil {
		return []models.MRawReading{}, err
	}
	start, end := utils.DayBounds(date)

	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339Nano))
	params.Set("end", end.Format(time.RFC3339Nano))
	params.Add("fields", models.FieldTimestamp)
	for _, sig := range s.Signals {
		params.Add("fields", sig)
	}

	var records []map[string]json.RawMessage
	if err := s.Client.GetJSON(ctx, s.BaseURL+"/data", params, &records); err != nil {
		s.Logger.Error("Extraction failed for %s: %v", day, err)
		return []models.MRawReading{}, err
	}
	s.Logger.Info("Data extracted for %s: %d records found", day, len(records))

	readings := make([]models.MRawReading, 0, len(records))
	skipped := 0
	for _, rec := range records {
		rd, ok := s.decode(rec)
		if !ok {
			skipped++
			continue
		}
		if !utils.SameDay(rd.Timestamp, date) {
			continue
		}
		readings = append(readings, rd)
	}

	if skipped > 0 {
		s.Logger.Warning("Skipped %d records without a valid timestamp for %s", skipped, day)
	}
	s.Logger.Info("Data filtered for %s: %d records", day, len(readings))
	return readings, nil
}

// -----------------------------------------------------------------------------

func (s *APISource) decode(rec map[string]json.RawMessage) (models.MRawReading, bool) {
	rawTS, ok := rec[models.FieldTimestamp]
	if !ok {
		return models.MRawReading{}, false
	}
	var tsStr string
	if err := json.Unmarshal(rawTS, &tsStr); err != nil {
		return models.MRawReading{}, false
	}
	// naive timestamps are taken as UTC
	ts, err := iso8601.ParseString(tsStr)
	if err != nil {
		return models.MRawReading{}, false
	}

	rd := models.MRawReading{
		Timestamp: ts.UTC(),
		Values:    make(map[string]float64, len(s.Signals)),
	}
	for _, sig := range s.Signals {
		raw, ok := rec[sig]
		if !ok {
			continue
		}
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil || v == nil {
			continue
		}
		rd.Values[sig] = *v
	}
	return rd, true
}
