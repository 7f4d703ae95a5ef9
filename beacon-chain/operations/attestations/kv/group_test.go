package kv

import (
	"testing"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
	"github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation"
	attaggregation "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation/aggregation/attestations"
	"github.com/prysmaticlabs/attestation-pool/testing/assert"
	"github.com/prysmaticlabs/attestation-pool/testing/require"
	"github.com/prysmaticlabs/attestation-pool/testing/util"
)

func bits(set ...uint64) bitfield.Bitlist {
	b := bitfield.NewBitlist(8)
	for _, i := range set {
		b.SetBitAt(i, true)
	}
	return b
}

func attWithBits(slot primitives.Slot, b bitfield.Bitlist) *v1alpha1.Attestation {
	return util.HydrateAttestation(&v1alpha1.Attestation{
		Data:            &v1alpha1.AttestationData{Slot: slot},
		AggregationBits: b,
	})
}

func newTestGroup(t *testing.T, slot primitives.Slot) *matchingDataGroup {
	data := util.HydrateAttestationData(&v1alpha1.AttestationData{Slot: slot})
	seed := util.HydrateAttestation(&v1alpha1.Attestation{Data: data})
	id, err := attestation.NewId(seed, attestation.Data)
	require.NoError(t, err)
	return newMatchingDataGroup(data, id, newSeenCache(), attaggregation.DefaultSignatureAggregator)
}

func TestMatchingDataGroup_AddDeduplicatesSubsets(t *testing.T) {
	g := newTestGroup(t, 1)

	a1 := attWithBits(1, bits(1, 2, 3))
	delta, err := g.add(a1)
	require.NoError(t, err)
	assert.Equal(t, 1, delta)

	// A subset of an existing member is redundant.
	a2 := attWithBits(1, bits(1, 2))
	delta, err = g.add(a2)
	require.NoError(t, err)
	assert.Equal(t, 0, delta)
	assert.Equal(t, 1, g.activeCount())

	// A strict superset supersedes the existing member: net delta is one
	// member added minus one member removed, i.e. no change.
	a3 := attWithBits(1, bits(1, 2, 3, 4))
	delta, err = g.add(a3)
	require.NoError(t, err)
	assert.Equal(t, 0, delta)
	assert.Equal(t, 1, g.activeCount())
}

func TestMatchingDataGroup_AddIsIdempotent(t *testing.T) {
	g := newTestGroup(t, 1)
	a := attWithBits(1, bits(1, 2, 3))

	delta, err := g.add(a)
	require.NoError(t, err)
	assert.Equal(t, 1, delta)

	delta, err = g.add(a)
	require.NoError(t, err)
	assert.Equal(t, 0, delta)
	assert.Equal(t, 1, g.activeCount())
}

func TestMatchingDataGroup_ReportIncludedPrunesSubsumed(t *testing.T) {
	g := newTestGroup(t, 1)

	a1 := attWithBits(1, bits(1, 2))
	a2 := attWithBits(1, bits(3, 4))
	_, err := g.add(a1)
	require.NoError(t, err)
	_, err = g.add(a2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.activeCount())

	included := attWithBits(1, bits(1, 2, 3, 4))
	dropped := g.reportIncluded(1, included)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 0, g.activeCount())

	// Re-adding a now-subsumed attestation is a no-op.
	delta, err := g.add(a1)
	require.NoError(t, err)
	assert.Equal(t, 0, delta)
}

func TestMatchingDataGroup_ReportIncludedIsIdempotent(t *testing.T) {
	g := newTestGroup(t, 1)
	a := attWithBits(1, bits(1, 2))
	_, err := g.add(a)
	require.NoError(t, err)

	included := attWithBits(1, bits(1, 2))
	first := g.reportIncluded(1, included)
	second := g.reportIncluded(1, included)
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestMatchingDataGroup_OnReorgReadmitsAfterAncestor(t *testing.T) {
	g := newTestGroup(t, 10)
	a := attWithBits(10, bits(1, 2))
	_, err := g.add(a)
	require.NoError(t, err)

	dropped := g.reportIncluded(20, a)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, g.activeCount())

	// The common ancestor precedes the inclusion slot: the attestation
	// comes back.
	readmitted := g.onReorg(15)
	assert.Equal(t, 1, readmitted)
	assert.Equal(t, 1, g.activeCount())
}

func TestMatchingDataGroup_OnReorgKeepsOlderInclusions(t *testing.T) {
	g := newTestGroup(t, 10)
	a := attWithBits(10, bits(1, 2))
	_, err := g.add(a)
	require.NoError(t, err)
	g.reportIncluded(20, a)

	// The common ancestor is after the inclusion slot: nothing changes.
	readmitted := g.onReorg(25)
	assert.Equal(t, 0, readmitted)
	assert.Equal(t, 0, g.activeCount())
}

func TestMatchingDataGroup_StreamProducesDisjointAggregates(t *testing.T) {
	g := newTestGroup(t, 1)
	for _, b := range []bitfield.Bitlist{bits(1, 2), bits(3, 4), bits(1, 5)} {
		_, err := g.add(attWithBits(1, b))
		require.NoError(t, err)
	}

	aggs, err := g.stream(nil)
	require.NoError(t, err)

	seen := bitfield.NewBitlist(8)
	for _, a := range aggs {
		b := a.GetAggregationBits()
		assert.Equal(t, false, seen.Overlaps(b))
		seen = seen.Or(b)
	}
}
