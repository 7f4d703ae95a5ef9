package kv

import (
	gocache "github.com/patrickmn/go-cache"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
	"github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation"
	attaggregation "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation/aggregation/attestations"
)

// seenRecord captures one OnIncludedInBlock event: the bits that became
// "seen" on chain at the given slot, and the attestations that were pruned
// from the group's active set as a result. If the block that contained them
// is later orphaned, the record lets the group put those attestations back.
type seenRecord struct {
	slot primitives.Slot
	bits bitfield.Bitlist
	atts []v1alpha1.Att
}

// matchingDataGroup holds every attestation sharing one AttestationData,
// together with the on-chain inclusion history needed to prune redundant
// members and re-admit them across reorgs.
type matchingDataGroup struct {
	data     *v1alpha1.AttestationData
	dataHash attestation.ID

	members []v1alpha1.Att

	seenCache *gocache.Cache
	seenKey   string

	sigAggregator attaggregation.SignatureAggregator
}

func newMatchingDataGroup(data *v1alpha1.AttestationData, id attestation.ID, seenCache *gocache.Cache, sigAgg attaggregation.SignatureAggregator) *matchingDataGroup {
	return &matchingDataGroup{
		data:          data,
		dataHash:      id,
		seenCache:     seenCache,
		seenKey:       id.String(),
		sigAggregator: sigAgg,
	}
}

// add inserts att into the group's active member set. It returns the net
// change in member count: 0 when att was redundant (already covered by bits
// seen on chain, or a subset of an existing member's bits), or 1 minus the
// number of existing members att's bits strictly supersede and therefore
// remove -- a superseding add can leave the member count unchanged or even
// reduce it.
func (g *matchingDataGroup) add(att v1alpha1.Att) (int, error) {
	bits := att.GetAggregationBits()

	if hasSeenBit(g.seenCache, g.seenKey, bits) {
		return 0, nil
	}

	if att.RequiresCommitteeBits() {
		if _, ok := att.CommitteeIndex(); !ok {
			return 0, errMultiCommittee
		}
	}

	kept := g.members[:0]
	redundant := false
	superseded := 0
	for _, m := range g.members {
		mb := m.GetAggregationBits()
		if mb.Len() == bits.Len() {
			if mb.Contains(bits) {
				redundant = true
				kept = append(kept, m)
				continue
			}
			if bits.Contains(mb) {
				superseded++
				continue // m is superseded by the incoming attestation
			}
		}
		kept = append(kept, m)
	}
	g.members = kept
	if redundant {
		return 0, nil
	}

	g.members = append(g.members, att)
	return 1 - superseded, nil
}

// reportIncluded marks att's bits as seen on chain at slot, pruning any
// active members it subsumes. It returns the number of members removed.
func (g *matchingDataGroup) reportIncluded(slot primitives.Slot, att v1alpha1.Att) int {
	bits := att.GetAggregationBits()
	removed := g.pruneSubsumedBy(bits)
	insertSeenRecord(g.seenCache, g.seenKey, seenRecord{
		slot: slot,
		bits: cloneBitlist(bits),
		atts: removed,
	})
	return len(removed)
}

// pruneSubsumedBy removes and returns active members whose bits are a
// subset of bits.
func (g *matchingDataGroup) pruneSubsumedBy(bits bitfield.Bitlist) []v1alpha1.Att {
	var removed []v1alpha1.Att
	kept := g.members[:0]
	for _, m := range g.members {
		mb := m.GetAggregationBits()
		if mb.Len() == bits.Len() && bits.Contains(mb) {
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	g.members = kept
	return removed
}

// onReorg re-admits attestations whose inclusion slot is after
// commonAncestorSlot -- the block that included them no longer exists on
// the canonical chain, so they're eligible for selection again. It returns
// the net change in the group's member count, which callers accumulate into
// the pool's size the same way add's delta is.
func (g *matchingDataGroup) onReorg(commonAncestorSlot primitives.Slot) int {
	raw, _ := g.seenCache.Get(g.seenKey)
	records, _ := raw.([]seenRecord)
	if len(records) == 0 {
		return 0
	}

	var kept, reverted []seenRecord
	for _, r := range records {
		if r.slot > commonAncestorSlot {
			reverted = append(reverted, r)
			continue
		}
		kept = append(kept, r)
	}
	if len(reverted) == 0 {
		return 0
	}

	// Write the cache back before re-admitting: add()'s hasSeenBit check
	// must not see the records being reverted, or every re-admitted
	// attestation is rejected as already-seen.
	g.seenCache.Set(g.seenKey, kept, gocache.DefaultExpiration)

	netDelta := 0
	for _, r := range reverted {
		for _, a := range r.atts {
			delta, _ := g.add(a)
			netDelta += delta
		}
	}
	return netDelta
}

// activeCount returns the number of attestations currently stored in the
// group, before aggregation.
func (g *matchingDataGroup) activeCount() int {
	return len(g.members)
}

// activeMembers returns the group's raw (unaggregated) members, optionally
// restricted to one committee index.
func (g *matchingDataGroup) activeMembers(committeeIndex *primitives.CommitteeIndex) []v1alpha1.Att {
	if committeeIndex == nil {
		out := make([]v1alpha1.Att, len(g.members))
		copy(out, g.members)
		return out
	}
	var out []v1alpha1.Att
	for _, m := range g.members {
		if idx, ok := m.CommitteeIndex(); ok && idx == *committeeIndex {
			out = append(out, m)
		}
	}
	return out
}

// stream returns the group's members aggregated into maximal,
// pairwise-disjoint aggregates, optionally restricted to one committee
// index. It's a single, eagerly-computed pass: callers that need a fresh
// view after the group has mutated call stream again.
func (g *matchingDataGroup) stream(committeeIndex *primitives.CommitteeIndex) ([]v1alpha1.Att, error) {
	candidates := g.activeMembers(committeeIndex)
	return attaggregation.AggregateWith(candidates, g.sigAggregator)
}

func cloneBitlist(b bitfield.Bitlist) bitfield.Bitlist {
	out := make(bitfield.Bitlist, len(b))
	copy(out, b)
	return out
}
