package model

import "strings"

// ReliabilityTier ranks how far a source can be trusted
type ReliabilityTier int

const (
	TierUnknown ReliabilityTier = 0 // Not yet classified
	TierHigh    ReliabilityTier = 1 // Curated databases run by research institutions
	TierMedium  ReliabilityTier = 2 // Encyclopedias and community-edited references
	TierLow     ReliabilityTier = 3 // Anything else
)

func (t ReliabilityTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseTier converts a tier name (or its number) to a ReliabilityTier.
// Unrecognised names are TierLow.
func ParseTier(s string) ReliabilityTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1":
		return TierHigh
	case "medium", "2":
		return TierMedium
	default:
		return TierLow
	}
}
