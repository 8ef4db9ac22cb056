package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Multiplicative constants for the avalanche mix. These are part of the wire
// contract: any observer recomputing variants or delivery rotations must use
// the identical constants to arrive at the identical results.
const (
	mixConst1 uint64 = 0x517cc1b727220a95
	mixConst2 uint64 = 0x7fb5d329728ea185
)

// mix64 applies the two-round multiply-xor-shift avalanche used for delivery
// seed derivation.
func mix64(h uint64) uint64 {
	h *= mixConst1
	h ^= h >> 32
	h *= mixConst2
	h ^= h >> 27
	return h
}

// IdentityBytes maps a player identity to a fixed 32-byte digest so that
// deterministic hashing is independent of the identity's string length.
func IdentityBytes(userID string) [32]byte {
	return sha256.Sum256([]byte(userID))
}

// MatchIdentity derives a match's numeric id and canonical hex hash from a
// freshly minted unique seed string. The id is the digest's first 8 bytes
// read little-endian, so every record keyed by either form agrees.
func MatchIdentity(seed string) (uint64, string) {
	digest := sha256.Sum256([]byte(seed))
	return binary.LittleEndian.Uint64(digest[:8]), hex.EncodeToString(digest[:])
}

// VariantID computes the deterministic plant variant (0..VariantCount-1) from
// the match id, the planting player's identity, the slot index, and a counter
// (the planting timestamp). Single-round mix, matching the variant contract.
func VariantID(matchID uint64, userID string, slotIndex int, counter int64) uint8 {
	id := IdentityBytes(userID)

	h := matchID
	for i := 0; i < len(id); i += 8 {
		h ^= binary.LittleEndian.Uint64(id[i : i+8])
	}
	h ^= uint64(slotIndex)
	h ^= uint64(counter)

	h *= mixConst1
	h ^= h >> 32

	return uint8(h % VariantCount)
}
