package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncFetch_NormalizesLabel(t *testing.T) {
	before := testutil.ToFloat64(forecastFetchTotal.WithLabelValues("not_found"))
	IncFetch("  NOT_FOUND ")
	after := testutil.ToFloat64(forecastFetchTotal.WithLabelValues("not_found"))
	if after-before != 1 {
		t.Fatalf("want +1, got %v", after-before)
	}
}

func TestActiveLoops(t *testing.T) {
	base := testutil.ToFloat64(activeLoops)
	LoopStarted()
	LoopStarted()
	LoopStopped()
	if got := testutil.ToFloat64(activeLoops) - base; got != 1 {
		t.Fatalf("want 1 active loop, got %v", got)
	}
	LoopStopped()
}

func TestMustRegister_Idempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}
