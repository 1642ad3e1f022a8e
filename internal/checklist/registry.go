package checklist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"inspectd/internal/logging"
)

// Registry loads and serves checklist definitions from a configuration
// directory. Loading happens once, lazily on first lookup; the loaded set
// is immutable afterwards.
type Registry struct {
	dir string

	mu         sync.RWMutex
	loaded     bool
	checklists map[string]*Checklist
}

// NewRegistry creates a registry over a checklist directory. Nothing is
// read until Load or the first lookup.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:        dir,
		checklists: make(map[string]*Checklist),
	}
}

// Load scans the configured directory and parses every checklist file.
// It is idempotent: repeated calls after a successful scan are no-ops.
// Individual file failures are logged and skipped; a missing directory
// yields an empty registry with a warning, not an error.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}

	timer := logging.StartTimer(logging.CategoryChecklist, "LoadChecklists")
	defer timer.Stop()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.ChecklistWarn("Checklist directory does not exist: %s (no checklists available)", r.dir)
			r.loaded = true
			return nil
		}
		return err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		files = append(files, entry.Name())
	}

	// Parse files in parallel; per-file failures are logged and skipped so
	// one malformed checklist never blocks the others.
	var parsedMu sync.Mutex
	parsed := make(map[string]*Checklist, len(files))

	eg, _ := errgroup.WithContext(ctx)
	for _, name := range files {
		name := name
		eg.Go(func() error {
			path := filepath.Join(r.dir, name)
			cl, err := parseFile(path, idFromFilename(name))
			if err != nil {
				logging.Get(logging.CategoryChecklist).Error("Skipping checklist %s: %v", name, err)
				logging.Audit().ErrorEvent(logging.CategoryChecklist, fmt.Sprintf("checklist %s skipped: %v", name, err))
				return nil
			}
			parsedMu.Lock()
			parsed[cl.ID] = cl
			parsedMu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	r.checklists = parsed
	r.loaded = true

	logging.Checklist("Loaded %d checklist(s) from %s", len(parsed), r.dir)
	return nil
}

// ensureLoaded triggers the lazy load for lookup paths.
func (r *Registry) ensureLoaded() {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}
	if err := r.Load(context.Background()); err != nil {
		logging.Get(logging.CategoryChecklist).Error("Checklist load failed: %v", err)
	}
}

// Get returns the checklist with the given id, or nil when it is not
// loaded. Triggers the lazy load on first call.
func (r *Registry) Get(id string) *Checklist {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checklists[id]
}

// Default returns the checklist with the well-known default id when
// loaded, otherwise an arbitrary loaded checklist, otherwise nil.
func (r *Registry) Default() *Checklist {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cl, ok := r.checklists[DefaultChecklistID]; ok {
		return cl
	}
	for _, cl := range r.checklists {
		return cl
	}
	return nil
}

// Available returns the ids of all loaded checklists, sorted.
func (r *Registry) Available() []string {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.checklists))
	for id := range r.checklists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FirstSection returns the first section of a checklist, or nil when the
// checklist is absent or empty.
func (r *Registry) FirstSection(checklistID string) *Section {
	cl := r.Get(checklistID)
	if cl == nil {
		return nil
	}
	return cl.FirstSection()
}

// GetSection returns an exact top-level section match, or nil.
func (r *Registry) GetSection(checklistID, sectionID string) *Section {
	cl := r.Get(checklistID)
	if cl == nil {
		return nil
	}
	return cl.Section(sectionID)
}

// AllSections returns the flattened section list for a checklist, or nil
// when the checklist is absent.
func (r *Registry) AllSections(checklistID string) []SectionRef {
	cl := r.Get(checklistID)
	if cl == nil {
		return nil
	}
	return cl.AllSections()
}

// ResolveSection resolves a section or composite subarea address to its
// display detail. The second return is false when either the checklist or
// the address does not exist.
func (r *Registry) ResolveSection(checklistID string, id SectionID) (SectionDetail, bool) {
	cl := r.Get(checklistID)
	if cl == nil {
		return SectionDetail{}, false
	}
	return cl.Resolve(id)
}

// parseFile reads and normalizes a single checklist file.
func parseFile(path, id string) (*Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cl Checklist
	if err := yaml.Unmarshal(data, &cl); err != nil {
		return nil, err
	}

	cl.ID = id
	cl.normalize(path)
	return &cl, nil
}

// normalize fills innocuous defaults for missing fields and drops
// malformed sections, logging each drop.
func (cl *Checklist) normalize(source string) {
	if cl.Name == "" {
		cl.Name = cl.ID
	}

	seen := make(map[string]bool, len(cl.Sections))
	kept := cl.Sections[:0]
	for i := range cl.Sections {
		s := cl.Sections[i]
		if s.ID == "" {
			logging.ChecklistWarn("Dropping section with empty id in %s", source)
			continue
		}
		if seen[s.ID] {
			logging.ChecklistWarn("Dropping duplicate section %q in %s", s.ID, source)
			continue
		}
		seen[s.ID] = true

		if s.Name == "" {
			s.Name = s.ID
		}
		if s.Prompt == "" {
			s.Prompt = DefaultPrompt
		}
		if s.Items == nil {
			s.Items = []string{}
		}

		subSeen := make(map[string]bool, len(s.Subareas))
		subKept := s.Subareas[:0]
		for j := range s.Subareas {
			sub := s.Subareas[j]
			if sub.ID == "" {
				logging.ChecklistWarn("Dropping subarea with empty id in section %q of %s", s.ID, source)
				continue
			}
			if subSeen[sub.ID] {
				logging.ChecklistWarn("Dropping duplicate subarea %q in section %q of %s", sub.ID, s.ID, source)
				continue
			}
			subSeen[sub.ID] = true
			if sub.Name == "" {
				sub.Name = sub.ID
			}
			if sub.Items == nil {
				sub.Items = []string{}
			}
			subKept = append(subKept, sub)
		}
		s.Subareas = subKept

		kept = append(kept, s)
	}
	cl.Sections = kept
}

// idFromFilename derives a checklist id from its file name: extension
// stripped, lowercased, runs of non-alphanumerics collapsed to single
// underscores.
func idFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)

	var b strings.Builder
	b.Grow(len(base))
	lastUnderscore := false
	for _, c := range base {
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
