package handlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ffservice/internal/logging"
)

// MetricsHandler serves the default Prometheus registry, which holds every
// ffservice_* metric.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// promLogger routes promhttp errors to the application log.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logging.Error("metrics: %s", fmt.Sprint(v...))
}
