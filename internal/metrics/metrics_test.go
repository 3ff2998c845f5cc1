package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PageSaves.WithLabelValues(ResultOK).Inc()
	m.PageSaves.WithLabelValues(ResultConflict).Inc()
	m.BlockOps.WithLabelValues("block-add", ResultOK).Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PageSaves.WithLabelValues(ResultOK)))
	count, err := testutil.GatherAndCount(reg, "pagebuilder_page_saves_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// 同一注册器重复注册会 panic
	assert.Panics(t, func() { New(reg) })
}
