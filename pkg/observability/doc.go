/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and structured log lines.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.MergeHooks(metrics.Hooks(), observability.LoggingHooks(logger))
*/
package observability
