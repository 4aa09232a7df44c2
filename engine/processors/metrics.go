package processors

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var enforcerComparisons = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "chisel",
		Subsystem: "processors",
		Name:      "consistency_enforcer_comparisons_total",
		Help:      "Shadow-mode comparisons between the enforcer's decision and the state already on the query, by outcome.",
	},
	[]string{"outcome"},
)

const (
	outcomeMatch              = "match"
	outcomeMismatchFinal      = "mismatch_final"
	outcomeMismatchGroupID    = "mismatch_group_id"
	outcomeMultipleGroupConds = "multiple_group_condition"
)
