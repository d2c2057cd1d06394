package twc

import (
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/work-order-weather-service/internal/observability"
)

// rawResponse is what survives a breaker-guarded call: the body is read
// inside the call so the connection is released before the breaker returns.
type rawResponse struct {
	status int
	body   []byte
}

func newBreaker(failures int, metrics *observability.Metrics, logger *slog.Logger) *gobreaker.CircuitBreaker[rawResponse] {
	if failures <= 0 {
		return nil
	}
	return gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
		Name:        "weather-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				metrics.WeatherBreakerOpen.Set(1)
			} else {
				metrics.WeatherBreakerOpen.Set(0)
			}
		},
	})
}
