// Package util hydrates test fixtures with the fixed-length fields SSZ
// hashing requires (32-byte roots, 96-byte signatures) so table-driven
// tests can specify only the fields they care about.
package util

import (
	"github.com/prysmaticlabs/attestation-pool/config/fieldparams"
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

// HydrateAttestationData fills in zero-valued root fields so the result
// is safe to pass to AttestationData.HashTreeRoot.
func HydrateAttestationData(d *v1alpha1.AttestationData) *v1alpha1.AttestationData {
	if d == nil {
		d = &v1alpha1.AttestationData{}
	}
	if d.BeaconBlockRoot == nil {
		d.BeaconBlockRoot = make([]byte, fieldparams.RootLength)
	}
	if d.Source == nil {
		d.Source = &v1alpha1.Checkpoint{}
	}
	if d.Source.Root == nil {
		d.Source.Root = make([]byte, fieldparams.RootLength)
	}
	if d.Target == nil {
		d.Target = &v1alpha1.Checkpoint{}
	}
	if d.Target.Root == nil {
		d.Target.Root = make([]byte, fieldparams.RootLength)
	}
	return d
}

// HydrateAttestation fills in a's Data and Signature so it is safe to
// pass through the pool's ingress path.
func HydrateAttestation(a *v1alpha1.Attestation) *v1alpha1.Attestation {
	a.Data = HydrateAttestationData(a.Data)
	if a.Signature == nil {
		a.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	return a
}

// HydrateAttestationElectra fills in a's Data, Signature, and
// CommitteeBits.
func HydrateAttestationElectra(a *v1alpha1.AttestationElectra) *v1alpha1.AttestationElectra {
	a.Data = HydrateAttestationData(a.Data)
	if a.Signature == nil {
		a.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	if a.CommitteeBits == nil {
		a.CommitteeBits = primitives.NewAttestationCommitteeBits()
	}
	return a
}
