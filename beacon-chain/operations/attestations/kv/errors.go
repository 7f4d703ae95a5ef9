package kv

import "github.com/pkg/errors"

// Drop reasons. None of these are fatal: the caller logs them at debug and
// moves on. They're named so tests can assert on ErrorContains rather than
// string-matching ad hoc messages.
var (
	errNilAttestation       = errors.New("attestation can't be nil")
	errNilAttestationData   = errors.New("attestation's data can't be nil")
	errMultiCommittee       = errors.New("attestation commits to more than one committee")
	errUnknownCommittee     = errors.New("attestation references a committee index with no resolved size")
	errBadAggregationBits   = errors.New("aggregation bits length does not match resolved committee size")
	errIncompatibleCommittee = errors.New("attestation's committee layout is incompatible with its group")
)
