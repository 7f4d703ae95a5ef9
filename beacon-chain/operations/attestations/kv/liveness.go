package kv

import (
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

// livenessKey identifies one liveness signal: a specific validator, by the
// (committee, slot, bit-within-committee) triple that names its seat in the
// committee it attested from. Two attestations naming the same seat, even
// with different data or from different gossip copies, count once.
type livenessKey struct {
	committee primitives.CommitteeIndex
	slot      primitives.Slot
	bit       int
}

// CountLiveValidators returns the number of distinct validator seats
// represented across atts whose data isCorrect accepts. isCorrect is used
// to filter out attestations that voted for a target the chain did not
// finalize on, so a validator who only ever attested incorrectly is not
// counted as live.
func CountLiveValidators(atts []v1alpha1.Att, isCorrect func(data *v1alpha1.AttestationData) bool) int {
	seen := make(map[livenessKey]struct{})
	for _, att := range atts {
		data := att.GetData()
		if data == nil || (isCorrect != nil && !isCorrect(data)) {
			continue
		}
		committee, ok := att.CommitteeIndex()
		if !ok {
			continue
		}
		for _, bit := range att.GetAggregationBits().BitIndices() {
			seen[livenessKey{committee: committee, slot: data.Slot, bit: bit}] = struct{}{}
		}
	}
	return len(seen)
}
