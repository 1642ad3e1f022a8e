package comments

import (
	"strings"
	"testing"
)

// matcherLib builds a loaded library from the shared fixture.
func matcherLib(t *testing.T) *Library {
	t.Helper()
	defaultPath, customPath := writeLibrary(t, defaultLibraryYAML, "")
	lib := NewLibrary(defaultPath, customPath)
	if err := lib.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return lib
}

func TestMatchSingleKeyword(t *testing.T) {
	lib := matcherLib(t)

	result := lib.Match("Minor rust spots on roof", "exterior_roof")
	if !result.Matched {
		t.Fatal("Expected a match")
	}
	if !strings.Contains(strings.ToLower(result.Comment), "rust") {
		t.Errorf("Expected rust comment, got %q", result.Comment)
	}
	// "rust" alone scores 4/3 points: below the exact threshold
	if result.Confidence != ConfidencePartial {
		t.Errorf("Expected partial confidence, got %s (score=%.2f)", result.Confidence, result.Score)
	}
	if result.Section != "exterior_roof.rust" {
		t.Errorf("Expected path exterior_roof.rust, got %q", result.Section)
	}
}

func TestMatchMultipleKeywordsReachExact(t *testing.T) {
	lib := matcherLib(t)

	// rust (4/3) + rusted (2) + corrosion (3, capped) = 6.33
	result := lib.Match("Rusted sheets with corrosion and rust throughout", "exterior_roof")
	if !result.Matched {
		t.Fatal("Expected a match")
	}
	if result.Confidence != ConfidenceExact {
		t.Errorf("Expected exact confidence, got %s (score=%.2f)", result.Confidence, result.Score)
	}
	if result.Score < ScoreThreshold {
		t.Errorf("Expected score >= %v, got %.2f", ScoreThreshold, result.Score)
	}
}

func TestMatchNoOverlap(t *testing.T) {
	lib := matcherLib(t)

	result := lib.Match("the quick brown fox", "")
	if result.Matched {
		t.Errorf("Expected no match, got %+v", result)
	}
	if result.Confidence != ConfidenceNone {
		t.Errorf("Expected none confidence, got %s", result.Confidence)
	}
	if result.Comment != "" || result.Section != "" {
		t.Errorf("No-match result should carry no comment/section: %+v", result)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	lib := matcherLib(t)

	upper := lib.Match("RUST ON THE ROOF", "exterior_roof")
	lower := lib.Match("rust on the roof", "exterior_roof")
	if !upper.Matched || !lower.Matched {
		t.Fatal("Expected both cases to match")
	}
	if upper.Score != lower.Score {
		t.Errorf("Case should not affect score: %.2f vs %.2f", upper.Score, lower.Score)
	}
}

func TestMatchScoreMonotonicity(t *testing.T) {
	lib := matcherLib(t)

	// Adding more of a leaf's keywords to the text never lowers the score
	texts := []string{
		"damp patch in corner",
		"damp patch with moisture in corner",
		"damp patch with moisture and mould in corner",
	}
	prev := -1.0
	for _, text := range texts {
		result := lib.Match(text, "interior")
		if result.Score < prev {
			t.Errorf("Score decreased from %.2f to %.2f for %q", prev, result.Score, text)
		}
		prev = result.Score
	}
}

func TestMatchSectionHintSearchedFirst(t *testing.T) {
	defaultPath, customPath := writeLibrary(t, `section_a:
  entry:
    match: [cracking]
    text: Comment from section A.
section_b:
  entry:
    match: [cracking]
    text: Comment from section B.
`, "")
	lib := NewLibrary(defaultPath, customPath)

	// Equal scores everywhere: the hinted section's leaf must win
	result := lib.Match("cracking observed", "section_b")
	if result.Comment != "Comment from section B." {
		t.Errorf("Hinted section should win on equal score, got %q from %s", result.Comment, result.Section)
	}
}

func TestMatchWeakHintDoesNotBlockStrongGlobal(t *testing.T) {
	defaultPath, customPath := writeLibrary(t, `section_a:
  weak:
    match: [wet]
    text: Weak hinted comment.
section_b:
  strong:
    match: [wet area membrane failure]
    text: Strong global comment.
`, "")
	lib := NewLibrary(defaultPath, customPath)

	// Hint finds "wet" (1 point) but the global search finds the long
	// phrase (capped 3 points) in another section
	result := lib.Match("wet area membrane failure in bathroom", "section_a")
	if result.Comment != "Strong global comment." {
		t.Errorf("Strong global match should beat weak hinted match, got %q", result.Comment)
	}
	if result.Confidence != ConfidenceExact {
		t.Errorf("Expected exact confidence, got %s", result.Confidence)
	}
}

func TestMatchStrongHintSkipsGlobalSearch(t *testing.T) {
	defaultPath, customPath := writeLibrary(t, `section_a:
  strong:
    match: [subsidence, foundation movement]
    text: Hinted strong comment.
section_b:
  stronger:
    match: [subsidence, foundation movement, underpinning]
    text: Global stronger comment.
`, "")
	lib := NewLibrary(defaultPath, customPath)

	// Hinted score: subsidence (3 capped) + foundation movement (3 capped)
	// = 6 >= threshold, so the global tree is never consulted even though
	// it holds a higher-scoring leaf
	result := lib.Match("subsidence and foundation movement with underpinning required", "section_a")
	if result.Comment != "Hinted strong comment." {
		t.Errorf("Strong hinted match should stand without global search, got %q", result.Comment)
	}
}

func TestMatchHintNormalization(t *testing.T) {
	lib := matcherLib(t)

	// Composite section ids and display names normalize to library keys
	for _, hint := range []string{"exterior.roof", "Exterior Roof", "exterior_roof"} {
		result := lib.Match("rust noted", hint)
		if !result.Matched || !strings.HasPrefix(result.Section, "exterior_roof") {
			t.Errorf("Hint %q should normalize to exterior_roof, got %+v", hint, result)
		}
	}
}

func TestMatchUnknownHintFallsBackToGlobal(t *testing.T) {
	lib := matcherLib(t)

	result := lib.Match("cracking to plasterboard", "no_such_section")
	if !result.Matched {
		t.Fatal("Unknown hint should fall back to a global search")
	}
	if result.Section != "interior.walls.cracking" {
		t.Errorf("Expected nested interior match, got %q", result.Section)
	}
}

func TestMatchNestedSubtrees(t *testing.T) {
	lib := matcherLib(t)

	// interior.walls.cracking is two levels deep
	result := lib.Match("fracture lines above the door frame", "interior")
	if !result.Matched {
		t.Fatal("Expected nested leaf to match")
	}
	if result.Comment != "Cracking observed to internal wall linings." {
		t.Errorf("Unexpected comment: %q", result.Comment)
	}
}

func TestScoreLeafKeywordCap(t *testing.T) {
	leaf := &Node{
		Text:  "x",
		Match: []string{"a very long keyword phrase indeed"},
	}
	score := scoreLeaf(leaf, "contains a very long keyword phrase indeed somewhere")
	if score != keywordPointCap {
		t.Errorf("Long keyword should cap at %v, got %v", keywordPointCap, score)
	}
}

func TestScoreLeafAbsentKeywords(t *testing.T) {
	leaf := &Node{
		Text:  "x",
		Match: []string{"rust", "corrosion"},
	}
	if score := scoreLeaf(leaf, "perfectly clean surfaces"); score != 0 {
		t.Errorf("Absent keywords should score 0, got %v", score)
	}
}
