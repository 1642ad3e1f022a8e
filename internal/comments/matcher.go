package comments

import (
	"sort"
	"strings"

	"inspectd/internal/logging"
)

// Confidence classifies how strong a comment match is.
type Confidence string

const (
	ConfidenceExact   Confidence = "exact"
	ConfidencePartial Confidence = "partial"
	ConfidenceNone    Confidence = "none"
)

// ScoreThreshold is the significance cutoff: matches at or above it are
// exact, and a hinted-section match below it does not block a global
// search.
const ScoreThreshold = 3.0

// keywordPointCap caps the contribution of any single keyword.
const keywordPointCap = 3.0

// MatchResult is the outcome of matching one finding text.
type MatchResult struct {
	Matched    bool       `json:"matched"`
	Comment    string     `json:"comment,omitempty"`
	Section    string     `json:"section,omitempty"`
	Confidence Confidence `json:"confidence"`
	Score      float64    `json:"score"`
}

// candidate tracks the best leaf seen during a walk.
type candidate struct {
	score float64
	text  string
	path  string
}

// Match scores the given text against the library and returns the best
// boilerplate comment. sectionHint, when non-empty, is normalized to a
// library key and that subtree is searched first; the whole library is
// searched when the hinted subtree yields nothing or only a weak match.
func (l *Library) Match(text, sectionHint string) MatchResult {
	l.ensureLoaded()
	l.mu.RLock()
	defer l.mu.RUnlock()

	lower := strings.ToLower(text)

	var best candidate
	hintKey := ""
	if sectionHint != "" {
		hintKey = NormalizeKey(sectionHint)
		if sub, ok := l.root[hintKey]; ok {
			best = bestLeaf(sub, hintKey, lower)
		}
	}

	// A weak section-scoped match must not block a stronger global one.
	if best.score < ScoreThreshold {
		for _, key := range sortedKeys(l.root) {
			if found := bestLeaf(l.root[key], key, lower); found.score > best.score {
				best = found
			}
		}
	}

	if best.score <= 0 {
		logging.CommentsDebug("No comment match for %q (hint=%q)", truncate(text, 60), sectionHint)
		return MatchResult{Matched: false, Confidence: ConfidenceNone}
	}

	confidence := ConfidencePartial
	if best.score >= ScoreThreshold {
		confidence = ConfidenceExact
	}

	logging.CommentsDebug("Matched %q -> %s (score=%.2f, %s)", truncate(text, 60), best.path, best.score, confidence)

	return MatchResult{
		Matched:    true,
		Comment:    best.text,
		Section:    best.path,
		Confidence: confidence,
		Score:      best.score,
	}
}

// bestLeaf walks a subtree and returns its highest-scoring leaf. Children
// are visited in sorted key order so equal scores resolve
// deterministically.
func bestLeaf(n *Node, path, lowerText string) candidate {
	if n.IsLeaf() {
		return candidate{
			score: scoreLeaf(n, lowerText),
			text:  n.Text,
			path:  path,
		}
	}

	var best candidate
	for _, key := range sortedKeys(n.Children) {
		if found := bestLeaf(n.Children[key], path+"."+key, lowerText); found.score > best.score {
			best = found
		}
	}
	return best
}

// scoreLeaf sums keyword points for keywords contained in the text:
// min(len/3, 3) per matched keyword, so longer keywords contribute more,
// capped per keyword.
func scoreLeaf(n *Node, lowerText string) float64 {
	var score float64
	for _, kw := range n.Match {
		keyword := strings.ToLower(kw)
		if keyword == "" {
			continue
		}
		if strings.Contains(lowerText, keyword) {
			points := float64(len(keyword)) / 3.0
			if points > keywordPointCap {
				points = keywordPointCap
			}
			score += points
		}
	}
	return score
}

func sortedKeys(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
