// Package kv implements the pool's storage: attestations are grouped by
// the hash of their AttestationData, and each group independently builds
// and tracks its own maximal, pairwise-disjoint aggregates.
package kv

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

// ErrUnresolvable is returned by a CommitteeResolver when it cannot produce
// committee sizes for the requested slot, either because the slot falls
// outside the epochs it holds state for or because the resolver has no
// state loaded yet.
var ErrUnresolvable = errors.New("committee sizes unresolvable for slot")

// AttestationPool is the external surface the rest of the node drives: add
// incoming attestations, inform the pool of chain progress, and pull a
// block-ready selection back out.
type AttestationPool interface {
	Add(att v1alpha1.Att) error
	OnSlot(currentSlot primitives.Slot)
	OnIncludedInBlock(slot primitives.Slot, atts []v1alpha1.Att) error
	OnReorg(commonAncestorSlot primitives.Slot)
	Select(state StateAtSlot, forkCheck ForkChecker) ([]v1alpha1.Att, error)
	GetAll(slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex) []v1alpha1.Att
	Size() int
	Evictions() int
}

// CommitteeResolver answers committee-size queries against a held state
// snapshot. It must return quickly: the pool calls it while holding its own
// lock, so a resolver backed by a slow or blocking state lookup will stall
// every other caller of the pool.
type CommitteeResolver interface {
	// CommitteesSize resolves committee sizes for slot using the current or
	// previous epoch's committee assignments.
	CommitteesSize(slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, error)
	// CommitteesSizeAt resolves committee sizes for slot using the
	// assignments in effect two epochs back, for late attestations that have
	// aged out of CommitteesSize's window but are still within the
	// propagation range.
	CommitteesSizeAt(slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, error)
}

// StateAtSlot is the minimal view of the state a block is being built
// against that Select needs: how many attestations fit, which attestation
// variant the fork in effect at that slot expects, and how much of the
// block's attestation budget may be spent on previous-epoch attestations.
type StateAtSlot interface {
	Slot() primitives.Slot
	MaxAttestations() uint64
	RequiresCommitteeBits() bool
	PreviousEpochAttestationCapacity() uint64
}

// SpecValidator checks an attestation's data for validity against the state
// a block is being built against. A non-nil return means the data is
// invalid and the reason it was rejected.
type SpecValidator interface {
	Validate(state StateAtSlot, data *v1alpha1.AttestationData) error
}

// ForkChecker reports whether an attestation's target falls in the chain of
// the block currently being built, so the pool doesn't offer up attestations
// that would be invalid once included.
type ForkChecker interface {
	InBlockFork(data *v1alpha1.AttestationData) bool
}

// MetricsGauge is the single numeric output the pool pushes to on every
// mutation; in production it is backed by a Prometheus gauge.
type MetricsGauge interface {
	Set(v float64)
}

// noopGauge satisfies MetricsGauge without needing a real metrics backend
// wired in, so AttCaches is usable standalone in tests.
type noopGauge struct{}

func (noopGauge) Set(float64) {}

// unresolvableCommitteeResolver is the default CommitteeResolver: it never
// has state, so every committee-bits attestation routed through it is
// dropped until a real resolver is supplied.
type unresolvableCommitteeResolver struct{}

func (unresolvableCommitteeResolver) CommitteesSize(primitives.Slot) (map[primitives.CommitteeIndex]uint64, error) {
	return nil, ErrUnresolvable
}

func (unresolvableCommitteeResolver) CommitteesSizeAt(primitives.Slot) (map[primitives.CommitteeIndex]uint64, error) {
	return nil, ErrUnresolvable
}

// permissiveForkChecker accepts every attestation; used when the pool is
// exercised without a real fork-choice wired in.
type permissiveForkChecker struct{}

func (permissiveForkChecker) InBlockFork(*v1alpha1.AttestationData) bool { return true }

// noopSpecValidator accepts every attestation data.
type noopSpecValidator struct{}

func (noopSpecValidator) Validate(StateAtSlot, *v1alpha1.AttestationData) error { return nil }
