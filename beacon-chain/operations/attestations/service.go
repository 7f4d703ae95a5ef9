package attestations

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/attestation-pool/async"
	"github.com/prysmaticlabs/attestation-pool/beacon-chain/operations/attestations/kv"
	"github.com/prysmaticlabs/attestation-pool/config/params"
	"github.com/prysmaticlabs/attestation-pool/consensus-types/primitives"
	v1alpha1 "github.com/prysmaticlabs/attestation-pool/proto/attpool/v1alpha1"
)

var log = logrus.WithField("prefix", "attestations")

// CorrectTargetChecker reports whether an attestation's target checkpoint
// matches the chain's canonical view, so the liveness count excludes
// validators who only ever voted for the wrong target.
type CorrectTargetChecker interface {
	IsCorrect(data *v1alpha1.AttestationData) bool
}

// permissiveTargetChecker treats every target as correct; used when the
// Service is run without a real fork-choice view wired in.
type permissiveTargetChecker struct{}

func (permissiveTargetChecker) IsCorrect(*v1alpha1.AttestationData) bool { return true }

// Config configures a Service.
type Config struct {
	Pool          *kv.AttCaches
	GenesisTime   time.Time
	TargetChecker CorrectTargetChecker
}

// Service drives an AttCaches with wall-clock time: it computes the
// current slot from GenesisTime and periodically calls OnSlot to enforce
// retention, and refreshes the eviction and liveness gauges.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService builds a Service. ctx governs the service's lifetime; cancel
// it (or call Stop) to end the slot ticker.
func NewService(ctx context.Context, cfg *Config) *Service {
	if cfg.Pool == nil {
		cfg.Pool = NewPool()
	}
	if cfg.TargetChecker == nil {
		cfg.TargetChecker = permissiveTargetChecker{}
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Service{cfg: cfg, ctx: ctx, cancel: cancel}
}

// Start begins the slot ticker in the background.
func (s *Service) Start() {
	secondsPerSlot := time.Duration(params.BeaconConfig().SecondsPerSlot) * time.Second
	async.RunEvery(s.ctx, secondsPerSlot, s.tick)
}

// Stop ends the slot ticker.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status always reports healthy: the service has no external dependency
// that can fail independently of the process itself.
func (s *Service) Status() error {
	return nil
}

// Pool returns the underlying attestation pool.
func (s *Service) Pool() *kv.AttCaches {
	return s.cfg.Pool
}

func (s *Service) tick() {
	if s.cfg.GenesisTime.IsZero() {
		return
	}
	elapsed := time.Since(s.cfg.GenesisTime)
	if elapsed < 0 {
		return
	}
	secondsPerSlot := params.BeaconConfig().SecondsPerSlot
	if secondsPerSlot == 0 {
		return
	}
	currentSlot := primitives.Slot(uint64(elapsed.Seconds()) / secondsPerSlot)

	s.cfg.Pool.OnSlot(currentSlot)

	curEpoch := params.SlotToEpoch(currentSlot)
	currentLiveValidatorsGauge.Set(float64(s.cfg.Pool.LiveValidators(curEpoch, s.cfg.TargetChecker.IsCorrect)))
	if curEpoch > 0 {
		previousLiveValidatorsGauge.Set(float64(s.cfg.Pool.LiveValidators(curEpoch-1, s.cfg.TargetChecker.IsCorrect)))
	}
	poolEvictionsGauge.Set(float64(s.cfg.Pool.Evictions()))

	log.WithField("slot", currentSlot).Debug("Pruned attestation pool")
}
