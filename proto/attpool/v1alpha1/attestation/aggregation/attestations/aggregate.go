// Package attestations implements the greedy aggregation builder: the
// algorithm that merges a set of attestations sharing the same
// AttestationData into the smallest set of maximally-large, pairwise
// bit-disjoint aggregates.
package attestations

import (
	"sort"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestation-pool/beacon-chain/operations/attestations/poolerr"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

// SignatureAggregator combines raw signature blobs into one. The
// builder never verifies or otherwise interprets the blobs it is given.
type SignatureAggregator interface {
	AggregateSignatures(sigs [][]byte) ([]byte, error)
}

// SignatureAggregatorFunc adapts a function to a SignatureAggregator.
type SignatureAggregatorFunc func(sigs [][]byte) ([]byte, error)

// AggregateSignatures implements SignatureAggregator.
func (f SignatureAggregatorFunc) AggregateSignatures(sigs [][]byte) ([]byte, error) {
	return f(sigs)
}

// naiveConcat is the core's built-in default: it does not verify
// signatures, so by default it only concatenates the blobs it is handed.
// Production callers inject a real point-addition aggregator
// (crypto/bls.AggregateSignatures) instead.
var naiveConcat SignatureAggregator = SignatureAggregatorFunc(func(sigs [][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, poolerr.NewInvariantViolation("cannot build an aggregate from zero attestations")
	}
	size := 0
	for _, s := range sigs {
		size += len(s)
	}
	out := make([]byte, 0, size)
	for _, s := range sigs {
		out = append(out, s...)
	}
	return out, nil
})

// DefaultSignatureAggregator is used by Aggregate; override via
// AggregateWith for a real cryptographic aggregator.
var DefaultSignatureAggregator = naiveConcat

// Aggregate runs the greedy builder over atts using the package default
// signature aggregator.
func Aggregate(atts []v1alpha1.Att) ([]v1alpha1.Att, error) {
	return AggregateWith(atts, DefaultSignatureAggregator)
}

// AggregateWith runs the greedy builder over atts, combining signatures
// with agg. atts must all share the same AttestationData (the caller,
// matchingDataGroup, guarantees this); an empty or nil atts yields an
// empty, non-error result. A candidate that overlaps an emitted aggregate
// without being absorbed into it is left out of the result.
func AggregateWith(atts []v1alpha1.Att, agg SignatureAggregator) ([]v1alpha1.Att, error) {
	if len(atts) == 0 {
		return nil, nil
	}

	candidates := make([]v1alpha1.Att, len(atts))
	copy(candidates, atts)
	// Stable sort by descending bit count; ties keep insertion order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].GetAggregationBits().Count() > candidates[j].GetAggregationBits().Count()
	})

	var aggregates []v1alpha1.Att
	for len(candidates) > 0 {
		built, absorbedIdx, err := buildOne(candidates, agg)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, built)

		remaining := candidates[:0]
		absorbed := make(map[int]bool, len(absorbedIdx))
		for _, idx := range absorbedIdx {
			absorbed[idx] = true
		}
		builtBits := built.GetAggregationBits()
		for i, c := range candidates {
			if absorbed[i] {
				continue
			}
			// A candidate sharing a bit with an emitted aggregate would break
			// pairwise disjointness between aggregates, so it is left out.
			cb := c.GetAggregationBits()
			if cb.Len() == builtBits.Len() && cb.Overlaps(builtBits) {
				continue
			}
			remaining = append(remaining, c)
		}
		candidates = remaining
	}
	return aggregates, nil
}

// buildOne seeds an accumulator with candidates[0] and greedily absorbs
// every later candidate whose bits are disjoint from the accumulator's
// current bits, combining signatures as it goes. It returns the built
// aggregate and the indices (into candidates) that were absorbed.
func buildOne(candidates []v1alpha1.Att, agg SignatureAggregator) (v1alpha1.Att, []int, error) {
	if len(candidates) == 0 {
		return nil, nil, poolerr.NewInvariantViolation("cannot build an aggregate from zero attestations")
	}

	seed := candidates[0]
	bits := cloneBitlist(seed.GetAggregationBits())
	sigs := [][]byte{seed.GetSignature()}
	absorbed := []int{0}

	for i := 1; i < len(candidates); i++ {
		cand := candidates[i]
		candBits := cand.GetAggregationBits()
		if bits.Len() != candBits.Len() {
			continue
		}
		if bits.Overlaps(candBits) {
			continue
		}
		bits = bits.Or(candBits)
		sigs = append(sigs, cand.GetSignature())
		absorbed = append(absorbed, i)
	}

	combinedSig, err := agg.AggregateSignatures(sigs)
	if err != nil {
		return nil, nil, err
	}

	out := seed.Clone()
	setAggregationBits(out, bits)
	setSignature(out, combinedSig)
	return out, absorbed, nil
}

func cloneBitlist(b bitfield.Bitlist) bitfield.Bitlist {
	out := make(bitfield.Bitlist, len(b))
	copy(out, b)
	return out
}

// setAggregationBits and setSignature mutate the freshly-cloned
// aggregate in place; both concrete Att implementations expose plain
// exported fields, so a type switch suffices without widening the Att
// interface with setters real gossip-facing code never needs.
func setAggregationBits(att v1alpha1.Att, bits bitfield.Bitlist) {
	switch a := att.(type) {
	case *v1alpha1.Attestation:
		a.AggregationBits = bits
	case *v1alpha1.AttestationElectra:
		a.AggregationBits = bits
	}
}

func setSignature(att v1alpha1.Att, sig []byte) {
	switch a := att.(type) {
	case *v1alpha1.Attestation:
		a.Signature = sig
	case *v1alpha1.AttestationElectra:
		a.Signature = sig
	}
}
