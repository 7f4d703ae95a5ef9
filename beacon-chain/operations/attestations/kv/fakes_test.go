package kv

import (
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

// fakeState implements StateAtSlot with fields tests can set directly.
type fakeState struct {
	slot                  primitives.Slot
	maxAttestations       uint64
	requiresCommitteeBits bool
	prevEpochCapacity     uint64
}

func (s fakeState) Slot() primitives.Slot                        { return s.slot }
func (s fakeState) MaxAttestations() uint64                      { return s.maxAttestations }
func (s fakeState) RequiresCommitteeBits() bool                  { return s.requiresCommitteeBits }
func (s fakeState) PreviousEpochAttestationCapacity() uint64     { return s.prevEpochCapacity }

// fakeCommitteeResolver returns a fixed committee-size map for every slot.
type fakeCommitteeResolver struct {
	sizes map[primitives.CommitteeIndex]uint64
}

func (r fakeCommitteeResolver) CommitteesSize(primitives.Slot) (map[primitives.CommitteeIndex]uint64, error) {
	return r.sizes, nil
}

func (r fakeCommitteeResolver) CommitteesSizeAt(primitives.Slot) (map[primitives.CommitteeIndex]uint64, error) {
	return r.sizes, nil
}

// acceptAllForkChecker accepts every attestation data.
type acceptAllForkChecker struct{}

func (acceptAllForkChecker) InBlockFork(*v1alpha1.AttestationData) bool { return true }
