package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pathshala_streams_total",
	Help: "Completed chat streams by outcome.",
}, []string{"outcome"})
