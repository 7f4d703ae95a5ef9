// Package fieldparams holds fixed-size constants for SSZ-shaped fields.
package fieldparams

const (
	// BLSSignatureLength is the length in bytes of a BLS signature.
	BLSSignatureLength = 96
	// RootLength is the length in bytes of a Merkle/beacon-block root.
	RootLength = 32
	// BLSPubkeyLength is the length in bytes of a BLS public key.
	BLSPubkeyLength = 48
)
