// Package bls wraps github.com/herumi/bls-eth-go-binary with the small
// surface the attestation pool needs: generating keys for tests, signing,
// and aggregating signatures. The pool itself never imports this package
// directly -- SignatureAggregator is an injected capability, and this is
// the production implementation wired in by callers such as
// cmd/attestation-pool-demo.
package bls

import (
	"github.com/herumi/bls-eth-go-binary/bls"
	"github.com/pkg/errors"

	"github.com/prysmaticlabs/attestation-pool/config/fieldparams"
)

func init() {
	if err := bls.Init(bls.BLS12_381); err != nil {
		panic(errors.Wrap(err, "could not initialize bls backend"))
	}
	if err := bls.SetETHmode(bls.EthModeDraft07); err != nil {
		panic(errors.Wrap(err, "could not set bls eth mode"))
	}
}

// SecretKey is a BLS private key.
type SecretKey struct {
	k bls.SecretKey
}

// Signature is a BLS signature.
type Signature struct {
	s bls.Sign
}

// RandKey generates a new random secret key. It is used by the demo's
// synthetic feed; the pool itself never constructs keys.
func RandKey() (*SecretKey, error) {
	sk := &SecretKey{}
	sk.k.SetByCSPRNG()
	return sk, nil
}

// Sign signs msg, producing an opaque signature blob.
func (s *SecretKey) Sign(msg []byte) *Signature {
	return &Signature{s: *s.k.SignByte(msg)}
}

// Marshal serializes the signature to its wire form.
func (s *Signature) Marshal() []byte {
	return s.s.Serialize()
}

// AggregateSignatures combines raw signature blobs into a single
// aggregate signature via BLS point addition. It never mutates its
// inputs, and has the shape of the aggregation package's
// SignatureAggregatorFunc.
func AggregateSignatures(sigs [][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, errors.New("cannot aggregate zero signatures")
	}
	agg := new(bls.Sign)
	for i, raw := range sigs {
		if len(raw) != fieldparams.BLSSignatureLength {
			return nil, errors.Errorf("signature has wrong length: %d", len(raw))
		}
		var sig bls.Sign
		if err := sig.Deserialize(raw); err != nil {
			return nil, errors.Wrap(err, "could not deserialize signature")
		}
		if i == 0 {
			*agg = sig
			continue
		}
		agg.Add(&sig)
	}
	return agg.Serialize(), nil
}
