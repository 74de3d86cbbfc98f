package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					matched = false
				}
			}
			if !matched {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			if m.GetHistogram() != nil {
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpdate("message")
	c.RecordUpdate("message")
	c.RecordStart(true, true)
	c.RecordStart(false, false)
	c.RecordSubscriptionCheck("rate_limited")
	c.RecordMembershipLatency(150 * time.Millisecond)
	c.RecordConfirmation(true, 2)
	c.RecordConfirmation(false, 0)
	c.RecordContactSaved()
	c.RecordSheetsSync("synced")
	c.RecordBroadcast(3, 1)

	assert.Equal(t, 2.0, gatherValue(t, reg, "giveaway_updates_total", map[string]string{"kind": "message"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_starts_total", map[string]string{"created": "true"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_starts_total", map[string]string{"created": "false"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_referrals_applied_total", nil))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_subscription_checks_total", map[string]string{"outcome": "rate_limited"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_membership_check_seconds", nil))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_referrals_confirmed_total", nil))
	assert.Equal(t, 2.0, gatherValue(t, reg, "giveaway_participants_total", nil))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_contacts_saved_total", nil))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_sheets_sync_total", map[string]string{"result": "synced"}))
	assert.Equal(t, 3.0, gatherValue(t, reg, "giveaway_broadcast_messages_total", map[string]string{"result": "delivered"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "giveaway_broadcast_messages_total", map[string]string{"result": "failed"}))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordContactSaved()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "giveaway_contacts_saved_total 1")
}
