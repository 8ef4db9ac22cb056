package domain

// DeliveryRotationInterval is both the minimum seconds between refreshes and
// the time-bucket width of the rotation seed.
const DeliveryRotationInterval int64 = 60

// MaxDeliverySpots is the size of the active-customer array.
const MaxDeliverySpots = 5

// InvalidSpot marks an unused entry in the active-customer array.
const InvalidSpot uint8 = 255

// Canonical customer index ranges by layer, inclusive.
const (
	layer3Start, layer3End uint8 = 0, 2
	layer2Start, layer2End uint8 = 3, 10
	layer1Start, layer1End uint8 = 11, 22
)

// DeliveryState is the per-match record of which customers are currently
// sellable. It depends only on the match id and the time bucket, never on
// persisted randomness, so any observer can recompute it.
type DeliveryState struct {
	MatchID      uint64                  `json:"match_id"`
	LastUpdateAt int64                   `json:"last_update_at"`
	Spots        [MaxDeliverySpots]uint8 `json:"spots"`
	ActiveCount  uint8                   `json:"active_count"`
}

// NewDeliveryState creates the delivery record with its initial rotation
// applied.
func NewDeliveryState(matchID uint64, now int64) *DeliveryState {
	d := &DeliveryState{MatchID: matchID}
	d.apply(now)
	return d
}

// Available reports whether a customer index is in the current active set.
// This gate is authoritative: a sale against an absent customer is a hard
// failure regardless of any other precondition.
func (d *DeliveryState) Available(customerIndex uint8) bool {
	for i := 0; i < int(d.ActiveCount) && i < MaxDeliverySpots; i++ {
		if d.Spots[i] == customerIndex {
			return true
		}
	}
	return false
}

// NeedsRefresh reports whether the rotation interval has elapsed.
func (d *DeliveryState) NeedsRefresh(now int64) bool {
	return now >= d.LastUpdateAt+DeliveryRotationInterval
}

// Refresh recomputes the active set for the current time bucket. It fails
// without mutation when called before the rotation interval has elapsed.
func (d *DeliveryState) Refresh(now int64) error {
	if !d.NeedsRefresh(now) {
		return ErrDeliveryRotationTooSoon
	}
	d.apply(now)
	return nil
}

func (d *DeliveryState) apply(now int64) {
	spots, count := SelectDeliverySpots(DeliverySeed(d.MatchID, now))
	d.Spots = spots
	d.ActiveCount = count
	d.LastUpdateAt = now
}

// RotationBucket returns the 60-second bucket number for a timestamp.
func RotationBucket(now int64) uint64 {
	return uint64(now / DeliveryRotationInterval)
}

// DeliverySeed derives the deterministic rotation seed for a match and time.
// Any two timestamps in the same bucket yield the identical seed.
func DeliverySeed(matchID uint64, now int64) uint64 {
	return mix64(matchID ^ RotationBucket(now))
}

// SelectDeliverySpots deterministically picks the active customer set from a
// seed: exactly one index per layer, then up to two bonus picks from
// weighted layers. Duplicate avoidance for the bonus picks is best-effort
// (one fallback offset is tried; a colliding bonus slot may be omitted), so
// the count is 3 to 5.
func SelectDeliverySpots(seed uint64) ([MaxDeliverySpots]uint8, uint8) {
	spots := [MaxDeliverySpots]uint8{InvalidSpot, InvalidSpot, InvalidSpot, InvalidSpot, InvalidSpot}
	var count uint8

	layer3Count := uint64(layer3End - layer3Start + 1)
	layer2Count := uint64(layer2End - layer2Start + 1)
	layer1Count := uint64(layer1End - layer1Start + 1)

	// One guaranteed pick per layer, each from independent seed bits.
	spots[count] = layer3Start + uint8(seed%layer3Count)
	count++
	spots[count] = layer2Start + uint8((seed>>8)%layer2Count)
	count++
	spots[count] = layer1Start + uint8((seed>>16)%layer1Count)
	count++

	// Bonus pick 1: layer 2 or layer 1, weighted toward the outer ring.
	bonus1 := seed >> 24
	if bonus1%3 == 0 {
		offset := uint8((bonus1 >> 4) % layer2Count)
		pick := layer2Start + offset
		if containsSpot(&spots, count, pick) {
			pick = layer2Start + (offset+1)%uint8(layer2Count)
		}
		spots[count] = pick
		count++
	} else {
		offset := uint8((bonus1 >> 4) % layer1Count)
		pick := layer1Start + offset
		if containsSpot(&spots, count, pick) {
			pick = layer1Start + (offset+1)%uint8(layer1Count)
		}
		spots[count] = pick
		count++
	}

	// Bonus pick 2: any layer; a second inner-core spot is the rare case.
	bonus2 := seed >> 40
	switch layerChoice := bonus2 % 6; {
	case layerChoice < 2:
		pick := layer3Start + uint8((bonus2>>4)%layer3Count)
		if !containsSpot(&spots, count, pick) {
			spots[count] = pick
			count++
		}
	case layerChoice < 4:
		offset := uint8((bonus2 >> 4) % layer2Count)
		pick := layer2Start + offset
		if containsSpot(&spots, count, pick) {
			pick = layer2Start + (offset+2)%uint8(layer2Count)
		}
		if !containsSpot(&spots, count, pick) {
			spots[count] = pick
			count++
		}
	default:
		offset := uint8((bonus2 >> 4) % layer1Count)
		pick := layer1Start + offset
		if containsSpot(&spots, count, pick) {
			pick = layer1Start + (offset+2)%uint8(layer1Count)
		}
		if !containsSpot(&spots, count, pick) {
			spots[count] = pick
			count++
		}
	}

	return spots, count
}

func containsSpot(spots *[MaxDeliverySpots]uint8, count uint8, value uint8) bool {
	for i := uint8(0); i < count; i++ {
		if spots[i] == value {
			return true
		}
	}
	return false
}

// LayerDistribution counts active spots per layer, returned as
// (layer1, layer2, layer3).
func (d *DeliveryState) LayerDistribution() (l1, l2, l3 uint8) {
	for i := 0; i < int(d.ActiveCount) && i < MaxDeliverySpots; i++ {
		idx := d.Spots[i]
		if idx == InvalidSpot {
			continue
		}
		switch LayerFromIndex(int(idx)) {
		case 1:
			l1++
		case 2:
			l2++
		case 3:
			l3++
		}
	}
	return l1, l2, l3
}
