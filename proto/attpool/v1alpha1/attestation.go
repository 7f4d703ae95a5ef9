package v1alpha1

import (
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
)

// Att is the narrow view the pool needs of any attestation shape. Both
// the pre-Electra single-committee Attestation and the Electra
// committee-bits Attestation implement it; the pool dispatches on
// RequiresCommitteeBits once at ingress rather than on
// concrete type thereafter.
type Att interface {
	GetData() *AttestationData
	GetAggregationBits() bitfield.Bitlist
	GetSignature() []byte
	// GetCommitteeBits returns nil for pre-Electra attestations.
	GetCommitteeBits() primitives.AttestationCommitteeBits
	// RequiresCommitteeBits reports whether this attestation's milestone
	// uses the committee-bits variant.
	RequiresCommitteeBits() bool
	// CommitteeIndex returns the single committee this attestation
	// belongs to: Data.CommitteeIndex pre-Electra, or the lone set bit
	// in CommitteeBits post-Electra. Electra attestations that have not
	// been narrowed to a single committee return false.
	CommitteeIndex() (primitives.CommitteeIndex, bool)
	Clone() Att
}

// Attestation is the pre-Electra shape: one committee per attestation,
// identified by AttestationData.CommitteeIndex.
type Attestation struct {
	Data            *AttestationData
	AggregationBits bitfield.Bitlist
	Signature       []byte
}

var _ Att = (*Attestation)(nil)

// GetData implements Att.
func (a *Attestation) GetData() *AttestationData { return a.Data }

// GetAggregationBits implements Att.
func (a *Attestation) GetAggregationBits() bitfield.Bitlist { return a.AggregationBits }

// GetSignature implements Att.
func (a *Attestation) GetSignature() []byte { return a.Signature }

// GetCommitteeBits implements Att; phase0 attestations have none.
func (a *Attestation) GetCommitteeBits() primitives.AttestationCommitteeBits { return nil }

// RequiresCommitteeBits implements Att.
func (a *Attestation) RequiresCommitteeBits() bool { return false }

// CommitteeIndex implements Att.
func (a *Attestation) CommitteeIndex() (primitives.CommitteeIndex, bool) {
	if a.Data == nil {
		return 0, false
	}
	return a.Data.CommitteeIndex, true
}

// Clone implements Att.
func (a *Attestation) Clone() Att {
	bits := make(bitfield.Bitlist, len(a.AggregationBits))
	copy(bits, a.AggregationBits)
	sig := make([]byte, len(a.Signature))
	copy(sig, a.Signature)
	return &Attestation{Data: a.Data.Clone(), AggregationBits: bits, Signature: sig}
}

// AttestationElectra is the committee-bits shape introduced by the
// Electra upgrade: CommitteeBits identifies which committees the
// attestation's (wider) aggregation bitlist spans. The pool only ever
// sees single-committee instances prior to final on-chain aggregation,
// since unaggregated gossip attestations are published per-committee.
type AttestationElectra struct {
	Data            *AttestationData
	AggregationBits bitfield.Bitlist
	Signature       []byte
	CommitteeBits   primitives.AttestationCommitteeBits
}

var _ Att = (*AttestationElectra)(nil)

// GetData implements Att.
func (a *AttestationElectra) GetData() *AttestationData { return a.Data }

// GetAggregationBits implements Att.
func (a *AttestationElectra) GetAggregationBits() bitfield.Bitlist { return a.AggregationBits }

// GetSignature implements Att.
func (a *AttestationElectra) GetSignature() []byte { return a.Signature }

// GetCommitteeBits implements Att.
func (a *AttestationElectra) GetCommitteeBits() primitives.AttestationCommitteeBits {
	return a.CommitteeBits
}

// RequiresCommitteeBits implements Att.
func (a *AttestationElectra) RequiresCommitteeBits() bool { return true }

// CommitteeIndex implements Att: true only when exactly one committee
// bit is set, which is the only shape the pool groups by committee.
func (a *AttestationElectra) CommitteeIndex() (primitives.CommitteeIndex, bool) {
	indices := a.CommitteeBits.BitIndices()
	if len(indices) != 1 {
		return 0, false
	}
	return primitives.CommitteeIndex(indices[0]), true
}

// Clone implements Att.
func (a *AttestationElectra) Clone() Att {
	bits := make(bitfield.Bitlist, len(a.AggregationBits))
	copy(bits, a.AggregationBits)
	sig := make([]byte, len(a.Signature))
	copy(sig, a.Signature)
	cb := primitives.NewAttestationCommitteeBits()
	copy(cb, a.CommitteeBits)
	return &AttestationElectra{Data: a.Data.Clone(), AggregationBits: bits, Signature: sig, CommitteeBits: cb}
}
