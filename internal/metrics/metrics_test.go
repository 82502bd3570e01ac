package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSheetsCall_CountsOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(SheetsCalls.WithLabelValues("append_row", "ok"))
	errBefore := testutil.ToFloat64(SheetsCalls.WithLabelValues("append_row", "error"))

	ObserveSheetsCall("append_row", time.Now(), nil)
	ObserveSheetsCall("append_row", time.Now(), errors.New("quota"))
	ObserveSheetsCall("append_row", time.Now(), nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(SheetsCalls.WithLabelValues("append_row", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(SheetsCalls.WithLabelValues("append_row", "error")))
}

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })
	assert.Panics(t, func() { RegisterCollectors(reg) })
}
