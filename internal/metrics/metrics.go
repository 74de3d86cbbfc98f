package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	updates            *prometheus.CounterVec
	starts             *prometheus.CounterVec
	referralsApplied   prometheus.Counter
	subscriptionChecks *prometheus.CounterVec
	membershipLatency  prometheus.Histogram
	referralsConfirmed prometheus.Counter
	participants       prometheus.Counter
	contactsSaved      prometheus.Counter
	sheetsSync         *prometheus.CounterVec
	broadcastMessages  *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_updates_total",
			Help: "Telegram updates received by kind.",
		}, []string{"kind"}),
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_starts_total",
			Help: "Processed /start commands.",
		}, []string{"created"}),
		referralsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_referrals_applied_total",
			Help: "Pending referral edges created.",
		}),
		subscriptionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_subscription_checks_total",
			Help: "Subscription check attempts by outcome.",
		}, []string{"outcome"}),
		membershipLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "giveaway_membership_check_seconds",
			Help:    "Latency of channel membership checks including retries.",
			Buckets: prometheus.DefBuckets,
		}),
		referralsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_referrals_confirmed_total",
			Help: "Referral edges moved to confirmed.",
		}),
		participants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_participants_total",
			Help: "Users promoted to participant.",
		}),
		contactsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_contacts_saved_total",
			Help: "Contacts stored.",
		}),
		sheetsSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_sheets_sync_total",
			Help: "Spreadsheet mirror jobs by result.",
		}, []string{"result"}),
		broadcastMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_broadcast_messages_total",
			Help: "Broadcast deliveries by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.updates,
		c.starts,
		c.referralsApplied,
		c.subscriptionChecks,
		c.membershipLatency,
		c.referralsConfirmed,
		c.participants,
		c.contactsSaved,
		c.sheetsSync,
		c.broadcastMessages,
	)

	return c
}

func (c *Collector) RecordUpdate(kind string) {
	c.updates.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordStart(created, referralApplied bool) {
	label := "false"
	if created {
		label = "true"
	}
	c.starts.WithLabelValues(label).Inc()
	if referralApplied {
		c.referralsApplied.Inc()
	}
}

func (c *Collector) RecordSubscriptionCheck(outcome string) {
	c.subscriptionChecks.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordMembershipLatency(d time.Duration) {
	c.membershipLatency.Observe(d.Seconds())
}

// RecordConfirmation counts a confirmed referral and each participant
// promotion it caused.
func (c *Collector) RecordConfirmation(referralConfirmed bool, promotions int) {
	if referralConfirmed {
		c.referralsConfirmed.Inc()
	}
	if promotions > 0 {
		c.participants.Add(float64(promotions))
	}
}

func (c *Collector) RecordContactSaved() {
	c.contactsSaved.Inc()
}

func (c *Collector) RecordSheetsSync(result string) {
	c.sheetsSync.WithLabelValues(result).Inc()
}

func (c *Collector) RecordBroadcast(delivered, failed int) {
	c.broadcastMessages.WithLabelValues("delivered").Add(float64(delivered))
	c.broadcastMessages.WithLabelValues("failed").Add(float64(failed))
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
