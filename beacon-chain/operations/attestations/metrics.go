package attestations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_size",
		Help: "Number of unaggregated attestations currently stored in the attestation pool",
	})
	poolEvictionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_evictions_total",
		Help: "Cumulative number of attestations evicted from the pool for size pressure",
	})
	currentLiveValidatorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_current_live_validators",
		Help: "Distinct validator seats observed attesting correctly in the current epoch",
	})
	previousLiveValidatorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_previous_live_validators",
		Help: "Distinct validator seats observed attesting correctly in the previous epoch",
	})
)

// poolSizeGaugeAdapter lets kv.AttCaches push its size directly to
// Prometheus without depending on the prometheus package itself.
type poolSizeGaugeAdapter struct{}

func (poolSizeGaugeAdapter) Set(v float64) { poolSizeGauge.Set(v) }
