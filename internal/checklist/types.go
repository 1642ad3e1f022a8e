// Package checklist loads inspection checklist definitions from YAML and
// serves lookups over them. Checklists are loaded once from a configuration
// directory and treated as immutable afterwards.
package checklist

import "strings"

// DefaultChecklistID is preferred by Default() when present.
const DefaultChecklistID = "residential"

// DefaultPrompt is used for sections that declare no prompt of their own.
const DefaultPrompt = "Inspect this area."

// Checklist is an ordered, versioned definition of inspection sections
// for a given inspection standard.
type Checklist struct {
	// ID is derived from the config file name, not the file contents.
	ID       string `yaml:"-"`
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Standard string `yaml:"standard"`

	Sections []Section `yaml:"sections"`

	// Conclusions maps a severity label to boilerplate closing text.
	Conclusions map[string]string `yaml:"conclusions"`
}

// Section is an addressable unit of a checklist.
type Section struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`

	// Items are informational labels shown to the inspector. They are not
	// tracked individually.
	Items []string `yaml:"items"`

	// Subareas nest one level under the section. A subarea is addressed
	// externally by the composite id "{section}.{subarea}".
	Subareas []Subarea `yaml:"subareas"`
}

// Subarea is a nested area within a section.
type Subarea struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Prompt string   `yaml:"prompt"`
	Items  []string `yaml:"items"`
}

// SectionRef is a flattened (id, name) pair as returned by AllSections.
type SectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SectionID is a parsed section address. Subarea is empty for top-level
// sections.
type SectionID struct {
	Section string
	Subarea string
}

// ParseSectionID splits a section address at the first dot. Addresses with
// no dot refer to a top-level section.
func ParseSectionID(s string) SectionID {
	if i := strings.Index(s, "."); i >= 0 {
		return SectionID{Section: s[:i], Subarea: s[i+1:]}
	}
	return SectionID{Section: s}
}

// String renders the canonical address form.
func (id SectionID) String() string {
	if id.Subarea == "" {
		return id.Section
	}
	return id.Section + "." + id.Subarea
}

// IsComposite reports whether the id addresses a subarea.
func (id SectionID) IsComposite() bool {
	return id.Subarea != ""
}

// SectionDetail is the resolved display information for a section or
// subarea, used by navigation results and status summaries.
type SectionDetail struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Prompt string   `json:"prompt"`
	Items  []string `json:"items"`
}

// detail builds a SectionDetail for a top-level section.
func (s *Section) detail() SectionDetail {
	return SectionDetail{
		ID:     s.ID,
		Name:   s.Name,
		Prompt: s.Prompt,
		Items:  s.Items,
	}
}

// subareaDetail builds a SectionDetail for a subarea under its parent.
// The subarea inherits the parent prompt when it has none of its own.
func (s *Section) subareaDetail(sub *Subarea) SectionDetail {
	prompt := sub.Prompt
	if prompt == "" {
		prompt = s.Prompt
	}
	return SectionDetail{
		ID:     SectionID{Section: s.ID, Subarea: sub.ID}.String(),
		Name:   sub.Name,
		Prompt: prompt,
		Items:  sub.Items,
	}
}

// FirstSection returns the first declared section, or nil when the
// checklist has none.
func (c *Checklist) FirstSection() *Section {
	if len(c.Sections) == 0 {
		return nil
	}
	return &c.Sections[0]
}

// AllSections returns the flattened ordered section list: each parent
// section immediately followed by its subareas, subarea ids in composite
// form.
func (c *Checklist) AllSections() []SectionRef {
	refs := make([]SectionRef, 0, len(c.Sections))
	for i := range c.Sections {
		s := &c.Sections[i]
		refs = append(refs, SectionRef{ID: s.ID, Name: s.Name})
		for j := range s.Subareas {
			sub := &s.Subareas[j]
			refs = append(refs, SectionRef{
				ID:   SectionID{Section: s.ID, Subarea: sub.ID}.String(),
				Name: sub.Name,
			})
		}
	}
	return refs
}

// Section returns the top-level section with the given id, or nil.
// Composite subarea ids are not matched here; use Resolve for that.
func (c *Checklist) Section(id string) *Section {
	for i := range c.Sections {
		if c.Sections[i].ID == id {
			return &c.Sections[i]
		}
	}
	return nil
}

// Resolve looks up a section or composite subarea address and returns its
// display detail. The second return is false when the address does not
// exist in this checklist.
func (c *Checklist) Resolve(id SectionID) (SectionDetail, bool) {
	s := c.Section(id.Section)
	if s == nil {
		return SectionDetail{}, false
	}
	if !id.IsComposite() {
		return s.detail(), true
	}
	for i := range s.Subareas {
		if s.Subareas[i].ID == id.Subarea {
			return s.subareaDetail(&s.Subareas[i]), true
		}
	}
	return SectionDetail{}, false
}

// Contains reports whether the given address names a section or subarea
// of this checklist.
func (c *Checklist) Contains(id SectionID) bool {
	_, ok := c.Resolve(id)
	return ok
}

// Conclusion returns the boilerplate conclusion text for a severity
// label, or false when the checklist defines none.
func (c *Checklist) Conclusion(label string) (string, bool) {
	if c.Conclusions == nil {
		return "", false
	}
	text, ok := c.Conclusions[label]
	return text, ok
}
