// Package params holds the tunable protocol and pool parameters, exposed
// as a single BeaconConfig() singleton, override-able in tests.
package params

import (
	"sync"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
)

// BeaconChainConfig holds the subset of protocol configuration the
// attestation pool depends on: timing, per-upgrade fork boundaries, and
// pool-specific capacity knobs.
type BeaconChainConfig struct {
	// SlotsPerEpoch is the number of slots in one epoch.
	SlotsPerEpoch primitives.Slot
	// SecondsPerSlot is wall-clock seconds per slot.
	SecondsPerSlot uint64

	// MaxAttestations bounds attestations included per block pre-Electra.
	MaxAttestations uint64
	// MaxAttestationsElectra bounds attestations included per block from
	// the Electra upgrade onward (committee-bits aggregates cover more
	// committees per attestation, so fewer are needed).
	MaxAttestationsElectra uint64
	// MaxCommitteesPerSlot bounds the width of AttestationCommitteeBits.
	MaxCommitteesPerSlot uint64

	// AttestationPropagationSlotRange is how many slots behind the current
	// slot an attestation stays valid. kv.AttCaches does not read it; the
	// pool's retention window is set with kv.WithRetentionSlots (default 64).
	AttestationPropagationSlotRange primitives.Slot

	// ElectraForkEpoch is the first epoch at which attestations carry
	// CommitteeBits instead of a single CommitteeIndex.
	ElectraForkEpoch primitives.Epoch
}

func mainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		SlotsPerEpoch:                    32,
		SecondsPerSlot:                   12,
		MaxAttestations:                  128,
		MaxAttestationsElectra:           8,
		MaxCommitteesPerSlot:             64,
		AttestationPropagationSlotRange:  64,
		ElectraForkEpoch:                 primitives.Epoch(1 << 63), // effectively "never" until overridden
	}
}

var (
	configLock sync.RWMutex
	beaconCfg  = mainnetConfig()
)

// BeaconConfig returns the active configuration. Callers must not mutate
// the returned pointer; use OverrideBeaconConfig (tests only) instead.
func BeaconConfig() *BeaconChainConfig {
	configLock.RLock()
	defer configLock.RUnlock()
	return beaconCfg
}

// OverrideBeaconConfig replaces the active configuration. It exists for
// tests that need a deterministic, non-mainnet config (e.g. a small
// SlotsPerEpoch so epoch-boundary tests run fast).
func OverrideBeaconConfig(cfg *BeaconChainConfig) {
	configLock.Lock()
	defer configLock.Unlock()
	beaconCfg = cfg
}

// SlotToEpoch converts a slot to the epoch it belongs to.
func SlotToEpoch(slot primitives.Slot) primitives.Epoch {
	spe := BeaconConfig().SlotsPerEpoch
	if spe == 0 {
		return 0
	}
	return primitives.Epoch(slot / spe)
}

// StartSlot returns the first slot of epoch.
func StartSlot(epoch primitives.Epoch) primitives.Slot {
	return primitives.Slot(epoch) * BeaconConfig().SlotsPerEpoch
}
