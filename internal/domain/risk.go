package domain

import "strings"

// RiskLevel is the overall classification of a subject.
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "unknown"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ParseRiskLevel maps a case-insensitive token to a RiskLevel.
func ParseRiskLevel(token string) (RiskLevel, bool) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(token))) {
	case RiskUnknown:
		return RiskUnknown, true
	case RiskLow:
		return RiskLow, true
	case RiskMedium:
		return RiskMedium, true
	case RiskHigh:
		return RiskHigh, true
	case RiskCritical:
		return RiskCritical, true
	}
	return RiskUnknown, false
}

// AtLeast reports whether r is as severe as other. Unknown ranks below low.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// Sentiment is the tone of a news article towards its subject.
type Sentiment string

const (
	SentimentPositive     Sentiment = "positive"
	SentimentNeutral      Sentiment = "neutral"
	SentimentNegative     Sentiment = "negative"
	SentimentVeryNegative Sentiment = "very_negative"
)

// SentimentFromCompound buckets a compound polarity score in [-1,1].
func SentimentFromCompound(compound float64) Sentiment {
	switch {
	case compound >= 0.05:
		return SentimentPositive
	case compound <= -0.5:
		return SentimentVeryNegative
	case compound <= -0.05:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
