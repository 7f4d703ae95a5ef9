package params

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
)

// configOverrideFile is the subset of BeaconChainConfig fields an operator
// is allowed to override from a config file; zero-value fields are left
// at their mainnet default rather than zeroing the live config out.
type configOverrideFile struct {
	SlotsPerEpoch                    *uint64 `yaml:"SLOTS_PER_EPOCH"`
	SecondsPerSlot                   *uint64 `yaml:"SECONDS_PER_SLOT"`
	MaxAttestations                  *uint64 `yaml:"MAX_ATTESTATIONS"`
	MaxAttestationsElectra           *uint64 `yaml:"MAX_ATTESTATIONS_ELECTRA"`
	MaxCommitteesPerSlot             *uint64 `yaml:"MAX_COMMITTEES_PER_SLOT"`
	AttestationPropagationSlotRange  *uint64 `yaml:"ATTESTATION_PROPAGATION_SLOT_RANGE"`
	ElectraForkEpoch                 *uint64 `yaml:"ELECTRA_FORK_EPOCH"`
}

// LoadChainConfigFile overrides BeaconConfig() with values decoded from a
// YAML file on disk, applied as a partial override over the compiled-in
// defaults.
func LoadChainConfigFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "could not read chain config file")
	}
	var override configOverrideFile
	if err := yaml.Unmarshal(b, &override); err != nil {
		return errors.Wrap(err, "could not parse chain config file")
	}

	cfg := *BeaconConfig()
	if override.SlotsPerEpoch != nil {
		cfg.SlotsPerEpoch = primitives.Slot(*override.SlotsPerEpoch)
	}
	if override.SecondsPerSlot != nil {
		cfg.SecondsPerSlot = *override.SecondsPerSlot
	}
	if override.MaxAttestations != nil {
		cfg.MaxAttestations = *override.MaxAttestations
	}
	if override.MaxAttestationsElectra != nil {
		cfg.MaxAttestationsElectra = *override.MaxAttestationsElectra
	}
	if override.MaxCommitteesPerSlot != nil {
		cfg.MaxCommitteesPerSlot = *override.MaxCommitteesPerSlot
	}
	if override.AttestationPropagationSlotRange != nil {
		cfg.AttestationPropagationSlotRange = primitives.Slot(*override.AttestationPropagationSlotRange)
	}
	if override.ElectraForkEpoch != nil {
		cfg.ElectraForkEpoch = primitives.Epoch(*override.ElectraForkEpoch)
	}

	OverrideBeaconConfig(&cfg)
	return nil
}
