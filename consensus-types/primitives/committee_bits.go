package primitives

import "github.com/prysmaticlabs/go-bitfield"

// AttestationCommitteeBits identifies which committees contribute to a
// single Electra-and-later attestation. It is fixed at 64 bits, matching
// MAX_COMMITTEES_PER_SLOT across all known configurations.
type AttestationCommitteeBits = bitfield.Bitvector64

// NewAttestationCommitteeBits returns an all-zero committee bitvector.
func NewAttestationCommitteeBits() AttestationCommitteeBits {
	return bitfield.NewBitvector64()
}
