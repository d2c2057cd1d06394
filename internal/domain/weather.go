package domain

import "context"

// StatusAlertsPresent is the alert service status code meaning the alerts
// array is authoritative for the location. Any other code means no alerts.
const StatusAlertsPresent = 200

// Coordinate is a latitude/longitude pair as decimal strings.
type Coordinate struct {
	Latitude  string
	Longitude string
}

// ZipCoordinate is a cached geocode result, persisted as a document.
type ZipCoordinate struct {
	ID        string `json:"_id,omitempty"`
	Zip       string `json:"zip" validate:"required"`
	Latitude  string `json:"latitude" validate:"required,numeric"`
	Longitude string `json:"longitude" validate:"required,numeric"`
}

// ZipDocumentID derives the document id a zip code's coordinate is stored under.
func ZipDocumentID(zip string) string {
	return "zip" + zip
}

// NewZipCoordinate builds the cache document for a freshly resolved zip code.
func NewZipCoordinate(zip string, c Coordinate) ZipCoordinate {
	return ZipCoordinate{
		ID:        ZipDocumentID(zip),
		Zip:       zip,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}

// Coordinate returns the cached latitude/longitude pair.
func (z ZipCoordinate) Coordinate() Coordinate {
	return Coordinate{Latitude: z.Latitude, Longitude: z.Longitude}
}

// Alert is one alert object as returned by the weather service. Only
// Severity and HeadlineText survive into a BatchResult.
type Alert struct {
	Severity         string `json:"severity"`
	SeverityCode     int    `json:"severity_cd"`
	HeadlineText     string `json:"headline_text"`
	Phenomena        string `json:"phenomena"`
	Significance     string `json:"significance"`
	EventDescription string `json:"event_desc"`
	OfficeName       string `json:"office_name"`
	ExpireTimeLocal  string `json:"expire_time_local"`
}

// AlertResponse is the alert service answer for one coordinate.
type AlertResponse struct {
	StatusCode int
	Alerts     []Alert
}

// AlertSummary is the client-facing view of an Alert.
type AlertSummary struct {
	Severity string `json:"severity"`
	Headline string `json:"headline"`
}

// BatchResult maps resolved zip codes to their alert summaries. A nil slice
// marks "no alerts" and encodes as JSON null; unresolved zips are absent.
type BatchResult map[string][]AlertSummary

// Summaries reduces the response to the entry recorded in a BatchResult:
// an ordered, non-nil slice when alerts are present, nil otherwise.
func (r AlertResponse) Summaries() []AlertSummary {
	if r.StatusCode != StatusAlertsPresent {
		return nil
	}
	out := make([]AlertSummary, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		out = append(out, AlertSummary{Severity: a.Severity, Headline: a.HeadlineText})
	}
	return out
}

// CoordinateCache stores previously resolved zip coordinates.
type CoordinateCache interface {
	// Lookup returns the cached coordinate for zip. A miss is (zero, false, nil).
	Lookup(ctx context.Context, zip string) (ZipCoordinate, bool, error)

	// Store validates and persists a coordinate. Coordinates are create-once.
	Store(ctx context.Context, z ZipCoordinate) error
}

// Geocoder resolves a zip code to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, zip string) (Coordinate, error)
}

// AlertFetcher fetches active weather alerts for a coordinate.
type AlertFetcher interface {
	FetchAlerts(ctx context.Context, latitude, longitude string) (AlertResponse, error)
}
