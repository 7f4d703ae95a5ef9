// Package v1alpha1 defines the attestation wire types the pool consumes:
// AttestationData (the aggregation key's source), Checkpoint, and the two
// Att implementations (pre- and post-Electra). The pool treats these as
// opaque beyond the fields it names; it never verifies signatures.
package v1alpha1

import (
	ssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"

	"github.com/prysmaticlabs/attestation-pool/config/fieldparams"
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
)

// Checkpoint is a (epoch, root) pair identifying a finality checkpoint.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  []byte
}

// Clone returns a deep copy of c. A nil receiver returns nil.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	root := make([]byte, len(c.Root))
	copy(root, c.Root)
	return &Checkpoint{Epoch: c.Epoch, Root: root}
}

// HashTreeRootWith merkleizes the checkpoint into hh as a two-field
// container: (epoch, root).
func (c *Checkpoint) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(c.Epoch))
	if len(c.Root) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(c.Root)
	hh.Merkleize(indx)
	return nil
}

// AttestationData is the canonical, signed content of an attestation:
// the slot and committee it was produced for, the block it attests to,
// and the source/target checkpoints of the vote. Its HashTreeRoot is the
// dataHash used as the aggregation key: every attestation sharing one
// AttestationData aggregates into the same group.
type AttestationData struct {
	Slot            primitives.Slot
	CommitteeIndex  primitives.CommitteeIndex
	BeaconBlockRoot []byte
	Source          *Checkpoint
	Target          *Checkpoint
}

// Clone returns a deep copy of d. A nil receiver returns nil.
func (d *AttestationData) Clone() *AttestationData {
	if d == nil {
		return nil
	}
	root := make([]byte, len(d.BeaconBlockRoot))
	copy(root, d.BeaconBlockRoot)
	return &AttestationData{
		Slot:            d.Slot,
		CommitteeIndex:  d.CommitteeIndex,
		BeaconBlockRoot: root,
		Source:          d.Source.Clone(),
		Target:          d.Target.Clone(),
	}
}

// HashTreeRootWith merkleizes the five AttestationData fields in their
// canonical order: slot, committee index, beacon block root, source,
// target.
func (d *AttestationData) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()

	hh.PutUint64(uint64(d.Slot))
	hh.PutUint64(uint64(d.CommitteeIndex))

	if len(d.BeaconBlockRoot) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(d.BeaconBlockRoot)

	if d.Source == nil {
		d.Source = &Checkpoint{}
	}
	if err = d.Source.HashTreeRootWith(hh); err != nil {
		return err
	}

	if d.Target == nil {
		d.Target = &Checkpoint{}
	}
	if err = d.Target.HashTreeRootWith(hh); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot returns the dataHash identifying this attestation data for
// aggregation purposes.
func (d *AttestationData) HashTreeRoot() ([32]byte, error) {
	if d == nil {
		return [32]byte{}, errors.New("attestation data is nil")
	}
	return ssz.HashWithDefaultHasher(d)
}
