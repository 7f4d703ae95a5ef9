package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/prysmaticlabs/attestation-pool/beacon-chain/operations/attestations/kv"
	"github.com/prysmaticlabs/attestation-pool/config/fieldparams"
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	"github.com/prysmaticlabs/attestation-pool/crypto/bls"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// runSyntheticFeed periodically manufactures a plausible unaggregated
// attestation and adds it to pool, standing in for the gossip subscription
// a real beacon node would drive the pool from. It exists to exercise the
// whole stack end to end without a network.
func runSyntheticFeed(ctx context.Context, pool *kv.AttCaches, interval time.Duration, genesis time.Time) {
	if interval <= 0 {
		return
	}
	key, err := bls.RandKey()
	if err != nil {
		log.WithError(err).Error("Could not generate demo signing key")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			att := syntheticAttestation(key, genesis)
			if err := pool.Add(att); err != nil {
				log.WithError(err).Error("Invariant violation while adding synthetic attestation")
			}
		}
	}
}

func syntheticAttestation(key *bls.SecretKey, genesis time.Time) *v1alpha1.Attestation {
	slot := uint64(time.Since(genesis).Seconds()) / 12

	bits := bitfield.NewBitlist(8)
	bits.SetBitAt(uint64(rand.Intn(8)), true)

	root := make([]byte, fieldparams.RootLength)
	rand.Read(root)

	data := &v1alpha1.AttestationData{
		Slot:            primitives.Slot(slot),
		CommitteeIndex:  0,
		BeaconBlockRoot: root,
		Source:          &v1alpha1.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		Target:          &v1alpha1.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
	}

	sig := key.Sign(root).Marshal()
	return &v1alpha1.Attestation{Data: data, AggregationBits: bits, Signature: sig}
}
