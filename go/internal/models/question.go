package models

// Tier identifies one of the three question pools, ordered by increasing
// self-disclosure depth.
type Tier string

const (
	TierIceBreaking    Tier = "ice_breaking"
	TierGettingToKnow  Tier = "getting_to_know"
	TierDeepConnection Tier = "deep_connection"
)

// QuestionPool holds the three ordered question tiers. A pool is treated as
// immutable once it has been published; drawing never removes entries.
type QuestionPool struct {
	IceBreaking    []string `json:"iceBreaking" yaml:"ice_breaking"`
	GettingToKnow  []string `json:"gettingToKnow" yaml:"getting_to_know"`
	DeepConnection []string `json:"deepConnection" yaml:"deep_connection"`
}

// Tier returns the questions of a single tier.
func (p QuestionPool) Tier(t Tier) []string {
	switch t {
	case TierIceBreaking:
		return p.IceBreaking
	case TierGettingToKnow:
		return p.GettingToKnow
	case TierDeepConnection:
		return p.DeepConnection
	default:
		return nil
	}
}

// Size returns the total number of questions across all tiers.
func (p QuestionPool) Size() int {
	return len(p.IceBreaking) + len(p.GettingToKnow) + len(p.DeepConnection)
}

// Clone returns a deep copy so callers can never alias a published pool.
func (p QuestionPool) Clone() QuestionPool {
	return QuestionPool{
		IceBreaking:    append([]string(nil), p.IceBreaking...),
		GettingToKnow:  append([]string(nil), p.GettingToKnow...),
		DeepConnection: append([]string(nil), p.DeepConnection...),
	}
}
