// Package attestations wires the pool's storage (kv.AttCaches) into a
// long-running service: a slot ticker drives retention, and the pool's
// size is pushed to Prometheus on every mutation.
package attestations

import (
	"github.com/prysmaticlabs/attestation-pool/beacon-chain/operations/attestations/kv"
	"github.com/prysmaticlabs/attestation-pool/crypto/bls"
	attaggregation "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation/aggregation/attestations"
)

// NewPool builds a production-configured attestation pool: BLS
// point-addition signature aggregation, and its size gauge wired to
// Prometheus. Options passed after the defaults can still override either.
func NewPool(opts ...kv.Option) *kv.AttCaches {
	defaults := []kv.Option{
		kv.WithSizeGauge(poolSizeGaugeAdapter{}),
		kv.WithSignatureAggregator(attaggregation.SignatureAggregatorFunc(bls.AggregateSignatures)),
	}
	return kv.NewAttCaches(append(defaults, opts...)...)
}
