package kv

import (
	"testing"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
	"github.com/prysmaticlabs/attestation-pool/testing/assert"
	"github.com/prysmaticlabs/attestation-pool/testing/util"
)

func attAt(slot uint64, committee uint64, b ...uint64) *v1alpha1.Attestation {
	return util.HydrateAttestation(&v1alpha1.Attestation{
		Data: &v1alpha1.AttestationData{
			Slot:           primitives.Slot(slot),
			CommitteeIndex: primitives.CommitteeIndex(committee),
		},
		AggregationBits: bits(b...),
	})
}

func TestCountLiveValidators_SameBitsDifferentSlotsCountSeparately(t *testing.T) {
	atts := []v1alpha1.Att{
		attAt(13, 1, 1, 3, 5, 7),
		attAt(14, 1, 1, 3, 5, 7),
	}
	assert.Equal(t, 8, CountLiveValidators(atts, nil))
}

func TestCountLiveValidators_SameBitsDifferentCommitteesCountSeparately(t *testing.T) {
	atts := []v1alpha1.Att{
		attAt(13, 1, 1, 3, 5, 7),
		attAt(13, 2, 1, 3, 5, 7),
	}
	assert.Equal(t, 8, CountLiveValidators(atts, nil))
}

func TestCountLiveValidators_OverlappingBitsSameSlotAndCommitteeDeduplicate(t *testing.T) {
	atts := []v1alpha1.Att{
		attAt(13, 1, 1, 3, 5, 7),
		attAt(13, 1, 1, 2, 3, 4),
	}
	assert.Equal(t, 6, CountLiveValidators(atts, nil))
}

func TestCountLiveValidators_CorrectTargetFiltering(t *testing.T) {
	matchingRoot := make([]byte, 32)
	matchingRoot[0] = 1
	otherRoot := make([]byte, 32)
	otherRoot[0] = 2

	group1 := attAt(13, 1, 1, 3, 5, 7)
	group1.Data.Target = &v1alpha1.Checkpoint{Root: matchingRoot}
	group2 := attAt(13, 1, 1, 2, 3, 4)
	group2.Data.Target = &v1alpha1.Checkpoint{Root: otherRoot}

	isCorrect := func(data *v1alpha1.AttestationData) bool {
		return string(data.Target.Root) == string(matchingRoot)
	}

	atts := []v1alpha1.Att{group1, group2}
	assert.Equal(t, 4, CountLiveValidators(atts, isCorrect))
}

func TestCountLiveValidators_EmptyInput(t *testing.T) {
	assert.Equal(t, 0, CountLiveValidators(nil, nil))
}

func TestCountLiveValidators_IgnoresNilData(t *testing.T) {
	att := &v1alpha1.Attestation{
		AggregationBits: bits(1, 2),
	}
	assert.Equal(t, 0, CountLiveValidators([]v1alpha1.Att{att}, nil))
}
