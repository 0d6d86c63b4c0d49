package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rebuildsTotal counts completed index rebuilds. Cache hits do not count.
var rebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "autofiler",
	Subsystem: "index",
	Name:      "rebuilds_total",
	Help:      "Vector index rebuilds completed.",
})
