package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func gatheredNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

// go test -v --run TestRegisterMetrics -count=3
func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	register(reg)

	MessagesTotal.WithLabelValues("ticker").Inc()
	ErrorsTotal.WithLabelValues("protocol").Inc()

	if n := testutil.CollectAndCount(MessagesTotal); n < 1 {
		t.Errorf("MessagesTotal series = %d; want at least 1", n)
	}

	names := gatheredNames(t, reg)
	for _, want := range []string{
		"cbfeed_ws_messages_total",
		"cbfeed_ws_errors_total",
		"cbfeed_sink_insert_errors_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

// go test -v --run TestRegisterOnce
func TestRegisterOnce(t *testing.T) {
	// Register may run more than once per process; only the first call registers.
	Register(prometheus.NewRegistry())
	Register(prometheus.NewRegistry())
}
