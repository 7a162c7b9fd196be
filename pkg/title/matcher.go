package title

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

// MatchThreshold is the minimum score (0-100) for a fuzzy match to be trusted.
const MatchThreshold = 85.0

// numberRegex extracts sequence numbers from titles (e.g., "2", "3")
var numberRegex = regexp.MustCompile(`\b(\d+)\b`)

// MatchConfidence represents the confidence level of a title match.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // Score < 70
	ConfidenceLow                           // Score >= 70
	ConfidenceMedium                        // Score >= 85
	ConfidenceHigh                          // Score >= 95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MatchResult is the best candidate for a fuzzy title match.
type MatchResult struct {
	Title      string          // matched candidate, empty when nothing scored
	Index      int             // position in the candidate slice, -1 when none
	Score      float64         // similarity 0-100
	Confidence MatchConfidence
}

// Accepted reports whether the match clears MatchThreshold.
func (r MatchResult) Accepted() bool {
	return r.Index >= 0 && r.Score >= MatchThreshold
}

// MatchTitle scores every candidate against parsed using Levenshtein
// similarity on token-sorted clean titles, so "Office, The" and "The Office"
// compare equal. Matching sequence numbers earn a small bonus and mismatched
// ones a penalty.
func MatchTitle(parsed string, candidates []string) MatchResult {
	best := MatchResult{Index: -1, Confidence: ConfidenceNone}
	if len(candidates) == 0 {
		return best
	}

	key := TokenSort(parsed)
	if key == "" {
		return best
	}
	parsedNumbers := numberRegex.FindAllString(key, -1)

	for i, candidate := range candidates {
		candidateKey := TokenSort(candidate)
		if candidateKey == "" {
			continue
		}

		sim, err := edlib.StringsSimilarity(key, candidateKey, edlib.Levenshtein)
		if err != nil {
			continue
		}
		score := adjustScoreForNumbers(float64(sim), parsedNumbers, numberRegex.FindAllString(candidateKey, -1)) * 100

		if score > best.Score {
			best.Title = candidate
			best.Index = i
			best.Score = score
		}
	}

	switch {
	case best.Score >= 95:
		best.Confidence = ConfidenceHigh
	case best.Score >= 85:
		best.Confidence = ConfidenceMedium
	case best.Score >= 70:
		best.Confidence = ConfidenceLow
	default:
		best.Confidence = ConfidenceNone
	}

	return best
}

// adjustScoreForNumbers modifies a 0-1 similarity based on sequence number matching.
func adjustScoreForNumbers(score float64, parsedNums, candidateNums []string) float64 {
	if len(parsedNums) == 0 {
		return score
	}
	if len(candidateNums) == 0 {
		return score * 0.85
	}

	candidateSet := make(map[string]bool, len(candidateNums))
	for _, n := range candidateNums {
		candidateSet[n] = true
	}
	for _, n := range parsedNums {
		if candidateSet[n] {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
