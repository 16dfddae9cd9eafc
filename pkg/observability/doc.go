/*
Package observability turns lifecycle hooks into logs and Prometheus metrics.

Hook sets are plain domain.LifecycleHooks values, so they can be chained:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
