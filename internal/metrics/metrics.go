/*******************************************************************************
* File name: metrics.go
*
* Description: Prometheus counters for the stripe engine, implementing
* stripe.Metrics.
*******************************************************************************/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stripe holds the engine-level counters. Implements stripe.Metrics.
type Stripe struct {
	creates   prometheus.Counter
	retrieves prometheus.Counter
	updates   prometheus.Counter
	deletes   prometheus.Counter
	purges    prometheus.Counter
	repairs   prometheus.Counter
}

// NewStripe builds and registers the engine counters against reg. Pass
// prometheus.DefaultRegisterer for the process-wide default registry.
func NewStripe(reg prometheus.Registerer) *Stripe {
	s := &Stripe{
		creates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stripedfs",
			Name:      "creates_total",
			Help:      "Total number of files created.",
		}),
		retrieves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stripedfs",
			Name:      "retrieves_total",
			Help:      "Total number of files retrieved.",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stripedfs",
			Name:      "updates_total",
			Help:      "Total number of files updated.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stripedfs",
			Name:      "deletes_total",
			Help:      "Total number of files deleted.",
		}),
		purges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stripedfs",
			Name:      "purges_total",
			Help:      "Total number of stripes purged after failing an integrity check.",
		}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stripedfs",
			Name:      "block_repairs_total",
			Help:      "Total number of block repair sweeps performed.",
		}),
	}

	reg.MustRegister(s.creates, s.retrieves, s.updates, s.deletes, s.purges, s.repairs)
	return s
}

func (s *Stripe) IncCreate()   { s.creates.Inc() }
func (s *Stripe) IncRetrieve() { s.retrieves.Inc() }
func (s *Stripe) IncUpdate()   { s.updates.Inc() }
func (s *Stripe) IncDelete()   { s.deletes.Inc() }
func (s *Stripe) IncPurge()    { s.purges.Inc() }
func (s *Stripe) IncRepair()   { s.repairs.Inc() }
