package main

import "github.com/prometheus/client_golang/prometheus"

var caseAssignmentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "case_assignments_total",
		Help: "Case assignment attempts by outcome",
	},
	[]string{"outcome"},
)

var reportsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reports_created_total",
		Help: "Reports accepted through intake by priority",
	},
	[]string{"priority"},
)
