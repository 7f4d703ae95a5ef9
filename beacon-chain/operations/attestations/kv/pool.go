package kv

import (
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/attestation-pool/config/params"
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
	"github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation"
	attaggregation "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1/attestation/aggregation/attestations"
)

var log = logrus.WithField("prefix", "attestations/kv")

// defaultMaxSize bounds the number of unaggregated attestations the pool
// will hold across every slot it's tracking before it starts evicting the
// oldest slots, independent of the retention window.
const defaultMaxSize = 187500

// defaultRetentionSlots is how many slots behind the current slot a group
// is kept before OnSlot drops it outright, regardless of size pressure.
const defaultRetentionSlots = primitives.Slot(64)

// AttCaches is the pool's storage: attestations are grouped by the hash of
// their AttestationData, one matchingDataGroup per distinct data, indexed
// both by that hash and by slot for retention and eviction.
type AttCaches struct {
	mu sync.Mutex

	maxSize        int
	retentionSlots primitives.Slot

	groups       map[attestation.ID]*matchingDataGroup
	groupsBySlot map[primitives.Slot]map[attestation.ID]struct{}
	size         int
	evictions    int

	currentEpoch primitives.Epoch

	committeeResolver CommitteeResolver
	specValidator     SpecValidator
	sigAggregator     attaggregation.SignatureAggregator
	sizeGauge         MetricsGauge
	seenCache         *gocache.Cache
}

// Option configures an AttCaches at construction time.
type Option func(*AttCaches)

// WithMaxSize overrides the pool's total-size eviction threshold.
func WithMaxSize(n int) Option {
	return func(c *AttCaches) { c.maxSize = n }
}

// WithRetentionSlots overrides how many slots behind the current slot a
// group survives before OnSlot drops it.
func WithRetentionSlots(n primitives.Slot) Option {
	return func(c *AttCaches) { c.retentionSlots = n }
}

// WithCommitteeResolver wires the pool's source of committee sizes for
// committee-bits attestations. Without one, every such attestation is
// dropped.
func WithCommitteeResolver(r CommitteeResolver) Option {
	return func(c *AttCaches) { c.committeeResolver = r }
}

// WithSpecValidator wires the fork-specific attestation-data validity check
// Select runs before offering a group up. Without one, every group is
// considered valid.
func WithSpecValidator(v SpecValidator) Option {
	return func(c *AttCaches) { c.specValidator = v }
}

// WithSignatureAggregator overrides the aggregation builder's default
// naive-concatenation signature combiner, typically with
// crypto/bls.AggregateSignatures in production.
func WithSignatureAggregator(agg attaggregation.SignatureAggregator) Option {
	return func(c *AttCaches) { c.sigAggregator = agg }
}

// WithSizeGauge wires a metrics gauge the pool updates on every mutation.
func WithSizeGauge(g MetricsGauge) Option {
	return func(c *AttCaches) { c.sizeGauge = g }
}

// NewAttCaches builds an empty pool. Callers that need to accept
// committee-bits attestations must supply WithCommitteeResolver.
func NewAttCaches(opts ...Option) *AttCaches {
	c := &AttCaches{
		maxSize:           defaultMaxSize,
		retentionSlots:    defaultRetentionSlots,
		groups:            make(map[attestation.ID]*matchingDataGroup),
		groupsBySlot:      make(map[primitives.Slot]map[attestation.ID]struct{}),
		committeeResolver: unresolvableCommitteeResolver{},
		specValidator:     noopSpecValidator{},
		sigAggregator:     attaggregation.DefaultSignatureAggregator,
		sizeGauge:         noopGauge{},
		seenCache:         newSeenCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ AttestationPool = (*AttCaches)(nil)

// Add admits att into its matching group. It never returns an error for
// ordinary drop conditions (nil data, unresolvable committee, redundant
// bits) -- those are logged at debug and swallowed, mirroring the rest of
// the node's tolerance for malformed or stale gossip. A non-nil return is
// an invariant violation: a bug in the pool itself, not bad input.
func (c *AttCaches) Add(att v1alpha1.Att) error {
	if att == nil {
		c.drop(nil, errNilAttestation)
		return nil
	}
	data := att.GetData()
	if data == nil {
		c.drop(att, errNilAttestationData)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if att.RequiresCommitteeBits() {
		if err := c.checkCommitteeBits(att); err != nil {
			c.drop(att, err)
			return nil
		}
	}

	id, err := attestation.NewId(att, attestation.Data)
	if err != nil {
		c.drop(att, err)
		return nil
	}

	group := c.groupFor(data, id)
	delta, err := group.add(att)
	if err != nil {
		c.drop(att, err)
		return nil
	}
	if delta == 0 {
		return nil
	}

	c.size += delta
	c.updateSizeGauge()
	c.evictIfNeeded()
	return nil
}

func (c *AttCaches) checkCommitteeBits(att v1alpha1.Att) error {
	idx, ok := att.CommitteeIndex()
	if !ok {
		return errMultiCommittee
	}
	sizes, err := c.resolveCommitteeSizes(att.GetData().Slot)
	if err != nil {
		return err
	}
	size, ok := sizes[idx]
	if !ok {
		return errUnknownCommittee
	}
	if uint64(att.GetAggregationBits().Len()) != size {
		return errBadAggregationBits
	}
	return nil
}

// resolveCommitteeSizes routes a committee-size lookup to the resolver's
// current/previous-epoch view or its older snapshot, based on how far slot
// falls behind the pool's last-known current epoch. Attestations older
// than that are unresolvable by construction: there is no mechanism for the
// resolver to answer for them.
func (c *AttCaches) resolveCommitteeSizes(slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, error) {
	epoch := params.SlotToEpoch(slot)
	cur := c.currentEpoch
	switch {
	case epoch == cur || epoch+1 == cur:
		return c.committeeResolver.CommitteesSize(slot)
	case epoch+2 == cur:
		return c.committeeResolver.CommitteesSizeAt(slot)
	default:
		return nil, ErrUnresolvable
	}
}

func (c *AttCaches) groupFor(data *v1alpha1.AttestationData, id attestation.ID) *matchingDataGroup {
	g, ok := c.groups[id]
	if ok {
		return g
	}
	g = newMatchingDataGroup(data, id, c.seenCache, c.sigAggregator)
	c.groups[id] = g
	if c.groupsBySlot[data.Slot] == nil {
		c.groupsBySlot[data.Slot] = make(map[attestation.ID]struct{})
	}
	c.groupsBySlot[data.Slot][id] = struct{}{}
	return g
}

// OnSlot advances the pool's view of the current slot, dropping every
// group whose slot is strictly older than currentSlot minus the retention
// window.
func (c *AttCaches) OnSlot(currentSlot primitives.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentEpoch = params.SlotToEpoch(currentSlot)
	if currentSlot <= c.retentionSlots {
		return
	}
	horizon := currentSlot - c.retentionSlots
	for slot := range c.groupsBySlot {
		if slot < horizon {
			c.evictSlot(slot)
		}
	}
}

// OnIncludedInBlock tells the pool that atts were included on chain at
// slot, so their groups can prune any members now fully covered.
func (c *AttCaches) OnIncludedInBlock(slot primitives.Slot, atts []v1alpha1.Att) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, att := range atts {
		if att == nil {
			continue
		}
		data := att.GetData()
		if data == nil {
			continue
		}
		id, err := attestation.NewId(att, attestation.Data)
		if err != nil {
			continue
		}
		g, ok := c.groups[id]
		if !ok {
			continue
		}
		dropped := g.reportIncluded(slot, att)
		c.size -= dropped
	}
	c.updateSizeGauge()
	return nil
}

// OnReorg re-admits attestations included by blocks that are no longer
// canonical, across every group.
func (c *AttCaches) OnReorg(commonAncestorSlot primitives.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, g := range c.groups {
		c.size += g.onReorg(commonAncestorSlot)
	}
	c.updateSizeGauge()
}

// Select returns the attestations a block at state.Slot() should include:
// every aggregate each eligible group streams, newest slot first, each
// slot's aggregates ordered by set-bit count descending, subject to
// state.MaxAttestations() and the previous epoch's attestation quota.
func (c *AttCaches) Select(state StateAtSlot, forkCheck ForkChecker) ([]v1alpha1.Att, error) {
	if forkCheck == nil {
		forkCheck = permissiveForkChecker{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	maxAtts := state.MaxAttestations()
	wantCommitteeBits := state.RequiresCommitteeBits()
	blockSlot := state.Slot()
	prevEpochCap := state.PreviousEpochAttestationCapacity()
	curEpoch := params.SlotToEpoch(blockSlot)

	slots := make([]primitives.Slot, 0, len(c.groupsBySlot))
	for s := range c.groupsBySlot {
		if s < blockSlot {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] > slots[j] })

	result := make([]v1alpha1.Att, 0, maxAtts)
	var prevEpochUsed uint64

	for _, slot := range slots {
		if uint64(len(result)) >= maxAtts {
			break
		}

		type candidate struct {
			att  v1alpha1.Att
			bits int
		}
		var slotCandidates []candidate

		for _, hash := range sortedHashes(c.groupsBySlot[slot]) {
			g := c.groups[hash]
			if err := c.specValidator.Validate(state, g.data); err != nil {
				continue
			}
			if !forkCheck.InBlockFork(g.data) {
				continue
			}
			aggs, err := g.stream(nil)
			if err != nil {
				return nil, err
			}
			for _, a := range aggs {
				if a.RequiresCommitteeBits() != wantCommitteeBits {
					continue
				}
				slotCandidates = append(slotCandidates, candidate{att: a, bits: a.GetAggregationBits().Count()})
			}
		}

		sort.SliceStable(slotCandidates, func(i, j int) bool { return slotCandidates[i].bits > slotCandidates[j].bits })

		slotEpoch := params.SlotToEpoch(slot)
		isPrevEpoch := slotEpoch+1 == curEpoch
		for _, cand := range slotCandidates {
			if uint64(len(result)) >= maxAtts {
				break
			}
			if isPrevEpoch {
				if prevEpochUsed >= prevEpochCap {
					continue
				}
				prevEpochUsed++
			}
			result = append(result, cand.att)
		}
	}
	return result, nil
}

// GetAll lists every attestation the pool currently holds, optionally
// restricted to one slot and/or one committee index, newest slot first.
// It's a diagnostic surface, not the selection path.
func (c *AttCaches) GetAll(slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex) []v1alpha1.Att {
	c.mu.Lock()
	defer c.mu.Unlock()

	var slots []primitives.Slot
	if slot != nil {
		if _, ok := c.groupsBySlot[*slot]; ok {
			slots = []primitives.Slot{*slot}
		}
	} else {
		for s := range c.groupsBySlot {
			slots = append(slots, s)
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i] > slots[j] })
	}

	var out []v1alpha1.Att
	for _, s := range slots {
		for hash := range c.groupsBySlot[s] {
			out = append(out, c.groups[hash].activeMembers(committeeIndex)...)
		}
	}
	return out
}

// LiveValidators computes the liveness count for every attestation whose
// slot falls in epoch, filtered by isCorrect.
func (c *AttCaches) LiveValidators(epoch primitives.Epoch, isCorrect func(*v1alpha1.AttestationData) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := params.StartSlot(epoch)
	end := params.StartSlot(epoch + 1)

	var atts []v1alpha1.Att
	for slot, hashes := range c.groupsBySlot {
		if slot < start || slot >= end {
			continue
		}
		for hash := range hashes {
			atts = append(atts, c.groups[hash].activeMembers(nil)...)
		}
	}
	return CountLiveValidators(atts, isCorrect)
}

// Size returns the number of unaggregated attestations currently stored
// across every group.
func (c *AttCaches) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Evictions returns the cumulative number of attestations evicted for size
// pressure since the pool was created.
func (c *AttCaches) Evictions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// evictIfNeeded drops the oldest tracked slots, one at a time, until the
// pool is back under its size threshold or only the most recent slot
// remains -- the pool never evicts the single slot a proposer is most
// likely building against right now.
func (c *AttCaches) evictIfNeeded() {
	if c.size <= c.maxSize {
		return
	}
	slots := make([]primitives.Slot, 0, len(c.groupsBySlot))
	for s := range c.groupsBySlot {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	for len(slots) > 1 && c.size > c.maxSize {
		before := c.size
		c.evictSlot(slots[0])
		c.evictions += before - c.size
		slots = slots[1:]
	}
}

func (c *AttCaches) evictSlot(slot primitives.Slot) {
	hashes := c.groupsBySlot[slot]
	for hash := range hashes {
		g := c.groups[hash]
		c.size -= g.activeCount()
		delete(c.groups, hash)
	}
	delete(c.groupsBySlot, slot)
	c.updateSizeGauge()
}

func (c *AttCaches) updateSizeGauge() {
	c.sizeGauge.Set(float64(c.size))
}

func (c *AttCaches) drop(att v1alpha1.Att, reason error) {
	fields := logrus.Fields{"reason": reason}
	if att != nil {
		if data := att.GetData(); data != nil {
			fields["slot"] = data.Slot
		}
	}
	log.WithFields(fields).Debug("Dropping attestation")
}

func sortedHashes(hashes map[attestation.ID]struct{}) []attestation.ID {
	out := make([]attestation.ID, 0, len(hashes))
	for h := range hashes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
