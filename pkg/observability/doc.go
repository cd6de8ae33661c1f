/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics exposes Prometheus counters and histograms for turns, steps and
finished sub-dialogs. LogHooks writes the same events as structured log
records. Both return domain.LifecycleHooks and can be combined with MergeHooks:

	m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	hooks := observability.MergeHooks(m.Hooks(), observability.LogHooks(logger))
	eng, err := parley.New(parley.WithStore(store), parley.WithLifecycleHooks(hooks))
*/
package observability
