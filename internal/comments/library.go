// Package comments matches free-text inspection findings against a
// keyword-tagged library of boilerplate remarks. The library is a nested
// YAML mapping loaded once at startup, with an optional custom overlay file
// deep-merged over the defaults.
package comments

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"inspectd/internal/logging"
)

// conclusionsKey is the reserved top-level key holding severity-bucket
// boilerplate rather than matchable entries.
const conclusionsKey = "conclusions"

// Node is one element of the comment tree. A node is either a leaf
// (Text non-empty, optional Match keywords) or a branch (Children).
// Malformed raw entries are rejected at load time so matching never sees
// untyped data.
type Node struct {
	Text     string
	Match    []string
	Children map[string]*Node
}

// IsLeaf reports whether the node carries boilerplate text.
func (n *Node) IsLeaf() bool {
	return n.Text != ""
}

// Library holds the merged comment tree and conclusion texts. Loading is
// idempotent and guarded by a loaded flag; Reload swaps in a fresh parse.
type Library struct {
	defaultPath string
	customPath  string

	mu          sync.RWMutex
	loaded      bool
	root        map[string]*Node
	conclusions map[string]string
}

// NewLibrary creates a library over a default file and an optional custom
// overlay file. Nothing is read until Load or the first Match.
func NewLibrary(defaultPath, customPath string) *Library {
	return &Library{
		defaultPath: defaultPath,
		customPath:  customPath,
		root:        make(map[string]*Node),
		conclusions: make(map[string]string),
	}
}

// Load reads and merges the library files. Idempotent: repeated calls
// after the first are no-ops. Parse errors on either file are logged and
// that file contributes nothing.
func (l *Library) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}
	l.loadLocked()
	return nil
}

// Reload clears cached state and re-reads the library files, picking up
// configuration changes without a restart.
func (l *Library) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadLocked()
	return nil
}

// loadLocked performs the actual read+merge+convert. Caller holds the
// write lock.
func (l *Library) loadLocked() {
	timer := logging.StartTimer(logging.CategoryComments, "LoadLibrary")
	defer timer.Stop()

	merged := readRawFile(l.defaultPath)
	if custom := readRawFile(l.customPath); len(custom) > 0 {
		merged = deepMerge(merged, custom)
		logging.Comments("Merged custom overlay from %s", l.customPath)
	}

	l.conclusions = extractConclusions(merged)
	delete(merged, conclusionsKey)

	l.root = buildTree(merged, l.defaultPath)
	l.loaded = true

	logging.Comments("Comment library loaded: %d section(s), %d conclusion(s)", len(l.root), len(l.conclusions))
}

// ensureLoaded triggers the lazy load for read paths.
func (l *Library) ensureLoaded() {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if loaded {
		return
	}
	l.Load()
}

// Conclusion returns the boilerplate conclusion for a severity bucket
// (good, minor, attention, urgent). The second return is false when the
// bucket is absent.
func (l *Library) Conclusion(bucket string) (string, bool) {
	l.ensureLoaded()
	l.mu.RLock()
	defer l.mu.RUnlock()

	text, ok := l.conclusions[bucket]
	return text, ok
}

// Sections returns the sorted top-level section keys of the loaded tree.
func (l *Library) Sections() []string {
	l.ensureLoaded()
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.root))
	for k := range l.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EntryCount returns the number of matchable leaf entries in the tree.
func (l *Library) EntryCount() int {
	l.ensureLoaded()
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, n := range l.root {
		count += countLeaves(n)
	}
	return count
}

func countLeaves(n *Node) int {
	if n.IsLeaf() {
		return 1
	}
	count := 0
	for _, c := range n.Children {
		count += countLeaves(c)
	}
	return count
}

// readRawFile parses one library file into a raw map. Missing or
// malformed files contribute nothing.
func readRawFile(path string) map[string]interface{} {
	if path == "" {
		return map[string]interface{}{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Get(logging.CategoryComments).Error("Failed to read comment library %s: %v", path, err)
		}
		return map[string]interface{}{}
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		logging.Get(logging.CategoryComments).Error("Failed to parse comment library %s: %v", path, err)
		return map[string]interface{}{}
	}
	if raw == nil {
		return map[string]interface{}{}
	}
	return raw
}

// deepMerge merges overlay into base: mapping values merge recursively,
// everything else is replaced wholesale by the overlay.
func deepMerge(base, overlay map[string]interface{}) map[string]interface{} {
	for key, overlayVal := range overlay {
		baseVal, exists := base[key]
		if !exists {
			base[key] = overlayVal
			continue
		}
		baseMap, baseIsMap := baseVal.(map[string]interface{})
		overlayMap, overlayIsMap := overlayVal.(map[string]interface{})
		if baseIsMap && overlayIsMap {
			base[key] = deepMerge(baseMap, overlayMap)
		} else {
			base[key] = overlayVal
		}
	}
	return base
}

// extractConclusions pulls the reserved conclusions mapping out of the
// merged raw tree.
func extractConclusions(raw map[string]interface{}) map[string]string {
	conclusions := make(map[string]string)

	section, ok := raw[conclusionsKey].(map[string]interface{})
	if !ok {
		return conclusions
	}
	for bucket, v := range section {
		text, ok := v.(string)
		if !ok {
			logging.CommentsWarn("Ignoring non-text conclusion %q", bucket)
			continue
		}
		conclusions[bucket] = text
	}
	return conclusions
}

// buildTree converts the merged raw mapping into the strict node tree,
// rejecting malformed entries with a warning.
func buildTree(raw map[string]interface{}, source string) map[string]*Node {
	root := make(map[string]*Node, len(raw))
	for key, value := range raw {
		node, ok := buildNode(value, key, source)
		if !ok {
			continue
		}
		root[key] = node
	}
	return root
}

// buildNode converts one raw value. A mapping with a text field becomes a
// leaf; any other mapping becomes a branch; everything else is rejected.
func buildNode(value interface{}, path, source string) (*Node, bool) {
	m, ok := value.(map[string]interface{})
	if !ok {
		logging.CommentsWarn("Rejecting %s in %s: not a mapping", path, source)
		return nil, false
	}

	if rawText, hasText := m["text"]; hasText {
		text, ok := rawText.(string)
		if !ok || text == "" {
			logging.CommentsWarn("Rejecting %s in %s: text must be a non-empty string", path, source)
			return nil, false
		}
		return &Node{
			Text:  text,
			Match: keywordList(m["match"], path, source),
		}, true
	}

	children := make(map[string]*Node, len(m))
	for key, childVal := range m {
		child, ok := buildNode(childVal, path+"."+key, source)
		if !ok {
			continue
		}
		children[key] = child
	}
	return &Node{Children: children}, true
}

// keywordList converts a raw match field to a keyword slice, dropping
// non-string elements.
func keywordList(raw interface{}, path, source string) []string {
	if raw == nil {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		logging.CommentsWarn("Ignoring match field of %s in %s: not a list", path, source)
		return nil
	}
	keywords := make([]string, 0, len(list))
	for _, item := range list {
		kw, ok := item.(string)
		if !ok {
			logging.CommentsWarn("Ignoring non-string keyword in %s (%s)", path, source)
			continue
		}
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	return keywords
}

// NormalizeKey converts a section hint into library-key form: lowercased,
// runs of non-alphanumerics collapsed to single underscores, edges
// trimmed.
func NormalizeKey(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, c := range s {
		alnum := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if alnum {
			b.WriteRune(c)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// String renders a compact summary for logs.
func (l *Library) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fmt.Sprintf("Library{sections=%d, conclusions=%d}", len(l.root), len(l.conclusions))
}
