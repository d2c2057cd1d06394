package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertResponse_Summaries_KeepsOrderAndDropsExtraFields(t *testing.T) {
	resp := AlertResponse{
		StatusCode: 200,
		Alerts: []Alert{
			{Severity: "Moderate", HeadlineText: "Flood Watch until 8PM", Phenomena: "FA", OfficeName: "Upton"},
			{Severity: "Severe", HeadlineText: "Severe Thunderstorm Warning", SeverityCode: 2},
		},
	}

	got := resp.Summaries()

	require.Len(t, got, 2)
	assert.Equal(t, AlertSummary{Severity: "Moderate", Headline: "Flood Watch until 8PM"}, got[0])
	assert.Equal(t, AlertSummary{Severity: "Severe", Headline: "Severe Thunderstorm Warning"}, got[1])
}

func TestAlertResponse_Summaries_EmptyAlertsIsNotNil(t *testing.T) {
	got := AlertResponse{StatusCode: 200}.Summaries()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAlertResponse_Summaries_NonSuccessStatusIsNoAlerts(t *testing.T) {
	for _, code := range []int{204, 400, 404, 500} {
		resp := AlertResponse{StatusCode: code, Alerts: []Alert{{Severity: "Minor"}}}
		assert.Nil(t, resp.Summaries(), "status %d", code)
	}
}

func TestNewZipCoordinate(t *testing.T) {
	z := NewZipCoordinate("10001", Coordinate{Latitude: "40.75", Longitude: "-73.99"})

	assert.Equal(t, "zip10001", z.ID)
	assert.Equal(t, "10001", z.Zip)
	assert.Equal(t, Coordinate{Latitude: "40.75", Longitude: "-73.99"}, z.Coordinate())
}
