package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := value(t, entriesLogged.WithLabelValues("lunch"))
	IncEntryLogged("lunch")
	IncEntryLogged("lunch")
	assert.Equal(t, before+2, value(t, entriesLogged.WithLabelValues("lunch")))

	before = value(t, durableWriteFailures.WithLabelValues("save_entry"))
	IncDurableWriteFailure("save_entry")
	assert.Equal(t, before+1, value(t, durableWriteFailures.WithLabelValues("save_entry")))

	before = value(t, profilesCompleted)
	IncProfileCompleted()
	assert.Equal(t, before+1, value(t, profilesCompleted))
}
