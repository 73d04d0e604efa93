package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/relab/benor"
)

func TestNodeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "benor")
	nm := m.Node(2)

	nm.Received(benor.Propose)
	nm.Received(benor.Propose)
	nm.Received(benor.Vote)
	nm.SetRound(3)
	nm.InboxDropped()
	nm.Decided(benor.One, 3, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.MessagesReceived.WithLabelValues("2", "Phase1")); got != 2 {
		t.Errorf("Phase1 received = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Round.WithLabelValues("2")); got != 3 {
		t.Errorf("round = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.InboxDropped.WithLabelValues("2")); got != 1 {
		t.Errorf("inbox dropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Decisions.WithLabelValues("2", "1")); got != 1 {
		t.Errorf("decisions = %v, want 1", got)
	}
}

func TestNilNodeMetrics(t *testing.T) {
	var m *Metrics
	nm := m.Node(0)
	// must not panic
	nm.Received(benor.Vote)
	nm.Ignored("killed")
	nm.CoinFlip()
	nm.InboxDropped()
	nm.Decided(benor.Zero, 1, time.Second)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "benor")
	m.Node(0).CoinFlip()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `benor_coin_flips_total{node="0"} 1`) {
		t.Errorf("coin flip counter missing from exposition:\n%s", rec.Body.String())
	}
}
