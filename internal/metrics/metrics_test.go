package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(OperationsTotal.WithLabelValues("metrics-test", "get", StatusMissing))

	ObserveOperation("metrics-test", "get", errors.New("missing packet"), true)
	ObserveOperation("metrics-test", "get", nil, false)
	ObserveOperation("metrics-test", "get", errors.New("disk"), false)

	assert.Equal(t, before+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("metrics-test", "get", StatusMissing)))
	assert.Equal(t, float64(1), testutil.ToFloat64(OperationsTotal.WithLabelValues("metrics-test", "get", StatusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(OperationsTotal.WithLabelValues("metrics-test", "get", StatusError)))
}

func TestObserveCompaction(t *testing.T) {
	ObserveCompaction("metrics-test", nil)
	ObserveCompaction("metrics-test", errors.New("rename failed"))

	assert.Equal(t, float64(1), testutil.ToFloat64(CompactionsTotal.WithLabelValues("metrics-test", StatusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(CompactionsTotal.WithLabelValues("metrics-test", StatusError)))
}
