package kv

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestation-pool/config/params"
)

// newSeenCache builds the shared cache every group stores its on-chain
// inclusion history in, keyed by AttestationData hash. Entries expire after
// roughly one epoch: a group's inclusion history only matters for as long
// as reorgs reaching back that far remain plausible, and letting it expire
// bounds memory for groups that fall out of the pool's retention window
// without an explicit eviction.
func newSeenCache() *gocache.Cache {
	cfg := params.BeaconConfig()
	ttl := time.Duration(cfg.SlotsPerEpoch) * time.Duration(cfg.SecondsPerSlot) * time.Second
	return gocache.New(ttl, ttl/2)
}

// hasSeenBit reports whether bits is a subset of any bit pattern already
// recorded under key.
func hasSeenBit(cache *gocache.Cache, key string, bits bitfield.Bitlist) bool {
	for _, r := range seenRecordsFor(cache, key) {
		if r.bits.Len() == bits.Len() && r.bits.Contains(bits) {
			return true
		}
	}
	return false
}

// insertSeenRecord appends r to the records stored under key, refreshing
// the cache entry's expiration.
func insertSeenRecord(cache *gocache.Cache, key string, r seenRecord) {
	raw, _ := cache.Get(key)
	records, _ := raw.([]seenRecord)
	records = append(records, r)
	cache.Set(key, records, gocache.DefaultExpiration)
}

func seenRecordsFor(cache *gocache.Cache, key string) []seenRecord {
	raw, ok := cache.Get(key)
	if !ok {
		return nil
	}
	records, _ := raw.([]seenRecord)
	return records
}
