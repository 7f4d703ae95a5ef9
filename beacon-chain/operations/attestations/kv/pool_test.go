package kv

import (
	"testing"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
	"github.com/prysmaticlabs/attestation-pool/testing/assert"
	"github.com/prysmaticlabs/attestation-pool/testing/require"
	"github.com/prysmaticlabs/attestation-pool/testing/util"
)

func unaggregatedAt(slot primitives.Slot, blockRootByte byte, b ...uint64) *v1alpha1.Attestation {
	root := make([]byte, 32)
	root[0] = blockRootByte
	return util.HydrateAttestation(&v1alpha1.Attestation{
		Data: &v1alpha1.AttestationData{
			Slot:            slot,
			BeaconBlockRoot: root,
		},
		AggregationBits: bits(b...),
	})
}

func TestAttCaches_AddIsIdempotent(t *testing.T) {
	c := NewAttCaches()
	a := unaggregatedAt(1, 1, 1, 2)

	require.NoError(t, c.Add(a))
	assert.Equal(t, 1, c.Size())

	require.NoError(t, c.Add(a))
	assert.Equal(t, 1, c.Size())
}

func TestAttCaches_AddSupersedingDoesNotInflateSize(t *testing.T) {
	c := NewAttCaches()

	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1, 2)))
	assert.Equal(t, 1, c.Size())

	// Same AttestationData, strict superset of bits: replaces the existing
	// member rather than adding a second one.
	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1, 2, 3)))
	assert.Equal(t, 1, c.Size())
}

func TestAttCaches_AddRejectsNil(t *testing.T) {
	c := NewAttCaches()
	require.NoError(t, c.Add(nil))
	assert.Equal(t, 0, c.Size())
}

func TestAttCaches_OnSlotEvictsOutsideRetentionWindow(t *testing.T) {
	c := NewAttCaches(WithRetentionSlots(64))
	require.NoError(t, c.Add(unaggregatedAt(10, 1, 1)))
	require.NoError(t, c.Add(unaggregatedAt(100, 2, 1)))
	assert.Equal(t, 2, c.Size())

	// 100 - 64 = 36: slot 10 is strictly older than the horizon and is
	// dropped; a group exactly at the horizon would survive.
	c.OnSlot(100)
	assert.Equal(t, 1, c.Size())
}

func TestAttCaches_OnSlotKeepsGroupAtExactHorizon(t *testing.T) {
	c := NewAttCaches(WithRetentionSlots(64))
	require.NoError(t, c.Add(unaggregatedAt(36, 1, 1)))

	c.OnSlot(100)
	assert.Equal(t, 1, c.Size())
}

func TestAttCaches_EvictionPreservesNewestSlot(t *testing.T) {
	c := NewAttCaches(WithMaxSize(1))
	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1)))
	require.NoError(t, c.Add(unaggregatedAt(2, 2, 1)))

	assert.Equal(t, 1, c.Size())
	assert.Equal(t, 1, c.Evictions())

	remaining := c.GetAll(nil, nil)
	require.Equal(t, 1, len(remaining))
	assert.Equal(t, primitives.Slot(2), remaining[0].GetData().Slot)
}

func TestAttCaches_OnIncludedInBlockThenOnReorgReadmits(t *testing.T) {
	c := NewAttCaches()
	a := unaggregatedAt(10, 1, 1, 2)
	require.NoError(t, c.Add(a))
	assert.Equal(t, 1, c.Size())

	require.NoError(t, c.OnIncludedInBlock(20, []v1alpha1.Att{a}))
	assert.Equal(t, 0, c.Size())

	c.OnReorg(15)
	assert.Equal(t, 1, c.Size())
}

func TestAttCaches_OnIncludedInBlockThenOnReorgAfterInclusionDoesNotReadmit(t *testing.T) {
	c := NewAttCaches()
	a := unaggregatedAt(10, 1, 1, 2)
	require.NoError(t, c.Add(a))

	require.NoError(t, c.OnIncludedInBlock(20, []v1alpha1.Att{a}))
	c.OnReorg(25)
	assert.Equal(t, 0, c.Size())
}

func TestAttCaches_SelectOrdersNewestSlotFirst(t *testing.T) {
	c := NewAttCaches()
	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1)))
	require.NoError(t, c.Add(unaggregatedAt(2, 2, 1)))

	atts, err := c.Select(fakeState{slot: 10, maxAttestations: 10}, acceptAllForkChecker{})
	require.NoError(t, err)
	require.Equal(t, 2, len(atts))
	assert.Equal(t, primitives.Slot(2), atts[0].GetData().Slot)
	assert.Equal(t, primitives.Slot(1), atts[1].GetData().Slot)
}

func TestAttCaches_SelectOrdersByBitCountWithinSlot(t *testing.T) {
	c := NewAttCaches()
	// Two distinct data hashes at the same slot (different block roots),
	// one with more set bits than the other.
	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1)))
	require.NoError(t, c.Add(unaggregatedAt(1, 2, 1, 2, 3)))

	atts, err := c.Select(fakeState{slot: 10, maxAttestations: 10}, acceptAllForkChecker{})
	require.NoError(t, err)
	require.Equal(t, 2, len(atts))
	assert.Equal(t, 3, atts[0].GetAggregationBits().Count())
	assert.Equal(t, 1, atts[1].GetAggregationBits().Count())
}

func TestAttCaches_SelectRespectsMaxAttestations(t *testing.T) {
	c := NewAttCaches()
	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1)))
	require.NoError(t, c.Add(unaggregatedAt(2, 2, 1)))

	atts, err := c.Select(fakeState{slot: 10, maxAttestations: 1}, acceptAllForkChecker{})
	require.NoError(t, err)
	require.Equal(t, 1, len(atts))
	assert.Equal(t, primitives.Slot(2), atts[0].GetData().Slot)
}

func TestAttCaches_SelectEnforcesPreviousEpochQuota(t *testing.T) {
	c := NewAttCaches()
	// Slot 31 (epoch 0) is the previous epoch relative to block slot 32
	// (epoch 1, since SlotsPerEpoch defaults to 32).
	require.NoError(t, c.Add(unaggregatedAt(31, 1, 1)))
	require.NoError(t, c.Add(unaggregatedAt(31, 2, 1, 2)))

	atts, err := c.Select(fakeState{
		slot:              32,
		maxAttestations:   10,
		prevEpochCapacity: 1,
	}, acceptAllForkChecker{})
	require.NoError(t, err)
	require.Equal(t, 1, len(atts))
	assert.Equal(t, 2, atts[0].GetAggregationBits().Count())
}

func TestAttCaches_SelectSkipsInvalidFork(t *testing.T) {
	c := NewAttCaches()
	require.NoError(t, c.Add(unaggregatedAt(1, 1, 1)))

	atts, err := c.Select(fakeState{slot: 10, maxAttestations: 10}, rejectAllForkChecker{})
	require.NoError(t, err)
	assert.Equal(t, 0, len(atts))
}

type rejectAllForkChecker struct{}

func (rejectAllForkChecker) InBlockFork(*v1alpha1.AttestationData) bool { return false }

func TestAttCaches_CommitteeBitsAttestationRequiresResolver(t *testing.T) {
	c := NewAttCaches()
	att := util.HydrateAttestationElectra(&v1alpha1.AttestationElectra{
		Data:            &v1alpha1.AttestationData{Slot: 1},
		AggregationBits: bits(1),
	})
	att.CommitteeBits.SetBitAt(0, true)

	require.NoError(t, c.Add(att))
	assert.Equal(t, 0, c.Size())
}

func TestAttCaches_CommitteeBitsAttestationAddedWithResolver(t *testing.T) {
	c := NewAttCaches(WithCommitteeResolver(fakeCommitteeResolver{
		sizes: map[primitives.CommitteeIndex]uint64{0: 8},
	}))
	att := util.HydrateAttestationElectra(&v1alpha1.AttestationElectra{
		Data:            &v1alpha1.AttestationData{Slot: 1},
		AggregationBits: bits(1),
	})
	att.CommitteeBits.SetBitAt(0, true)

	require.NoError(t, c.Add(att))
	assert.Equal(t, 1, c.Size())
}

func TestAttCaches_LiveValidatorsCountsDistinctSeatsInEpoch(t *testing.T) {
	c := NewAttCaches()
	require.NoError(t, c.Add(attAt(13, 1, 1, 3, 5, 7)))
	require.NoError(t, c.Add(attAt(14, 1, 1, 3, 5, 7)))

	assert.Equal(t, 8, c.LiveValidators(0, nil))
}
