// Package attestation derives stable cache keys ("IDs") from attestations.
package attestation

import (
	"github.com/pkg/errors"

	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

// IDField selects what an Id is derived from.
type IDField int

const (
	// Data derives the ID from AttestationData alone: this is the hash
	// used to key matchingDataGroups, shared by every attestation that
	// could aggregate together.
	Data IDField = iota
	// Full derives the ID from AttestationData plus the aggregation
	// bits, identifying one exact attestation instance.
	Full
)

// ID is an opaque, comparable cache key.
type ID struct {
	raw string
}

// String returns the raw key, suitable for use as a map key or a
// patrickmn/go-cache key.
func (i ID) String() string { return i.raw }

// NewId derives an ID for att according to field.
func NewId(att v1alpha1.Att, field IDField) (ID, error) {
	if att == nil {
		return ID{}, errors.New("attestation can't be nil")
	}
	data := att.GetData()
	if data == nil {
		return ID{}, errors.New("attestation's data can't be nil")
	}
	root, err := data.HashTreeRoot()
	if err != nil {
		return ID{}, errors.Wrap(err, "could not create attestation ID")
	}
	if field == Data {
		return ID{raw: string(root[:])}, nil
	}
	return ID{raw: string(root[:]) + string(att.GetAggregationBits())}, nil
}
