// Package retrieval maps free-text incident descriptions to static legal
// context snippets using ordered keyword rules.
package retrieval

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in profiles
const (
	ProfileOfficer = "officer"
	ProfileCitizen = "citizen"
)

//go:embed knowledge.yaml
var embeddedKnowledge []byte

// Rule binds trigger keywords to a snippet
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Snippet  string   `yaml:"snippet"`
}

// Snippet is the context chosen for a query
type Snippet struct {
	Rule string
	Text string
}

// Profile is one assistant persona: its prompt framing and its rules.
// Rule order is significant.
type Profile struct {
	Name           string `yaml:"-"`
	Preamble       string `yaml:"preamble"`
	ContextHeader  string `yaml:"context_header"`
	QuestionHeader string `yaml:"question_header"`
	Closing        string `yaml:"closing"`
	FallbackReply  string `yaml:"fallback_reply"`
	DraftTool      bool   `yaml:"draft_tool"`
	Rules          []Rule `yaml:"rules"`
	Fallback       Rule   `yaml:"fallback"`
}

// KnowledgeBase holds every profile loaded at startup
type KnowledgeBase struct {
	DefaultProfile string              `yaml:"default_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
}

// Load parses the knowledge base compiled into the binary
func Load() (*KnowledgeBase, error) {
	return Parse(embeddedKnowledge)
}

// Parse decodes and checks a knowledge base document. Keywords are lowercased
// so matching is case-insensitive.
func Parse(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	if len(kb.Profiles) == 0 {
		return nil, fmt.Errorf("knowledge base defines no profiles")
	}
	if _, ok := kb.Profiles[kb.DefaultProfile]; !ok {
		return nil, fmt.Errorf("default profile %q is not defined", kb.DefaultProfile)
	}

	for name, p := range kb.Profiles {
		if p == nil {
			return nil, fmt.Errorf("profile %q is empty", name)
		}
		p.Name = name
		if strings.TrimSpace(p.Fallback.Snippet) == "" {
			return nil, fmt.Errorf("profile %q has no fallback snippet", name)
		}
		if p.FallbackReply == "" {
			return nil, fmt.Errorf("profile %q has no fallback reply", name)
		}
		for i := range p.Rules {
			rule := &p.Rules[i]
			if len(rule.Keywords) == 0 {
				return nil, fmt.Errorf("profile %q rule %q has no keywords", name, rule.Name)
			}
			for j, kw := range rule.Keywords {
				kw = strings.ToLower(strings.TrimSpace(kw))
				if kw == "" {
					return nil, fmt.Errorf("profile %q rule %q has an empty keyword", name, rule.Name)
				}
				rule.Keywords[j] = kw
			}
		}
	}

	return &kb, nil
}

// Profile returns the named profile. An empty name selects the default.
func (kb *KnowledgeBase) Profile(name string) (*Profile, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = kb.DefaultProfile
	}
	p, ok := kb.Profiles[name]
	return p, ok
}

// ProfileNames lists the defined profiles in sorted order
func (kb *KnowledgeBase) ProfileNames() []string {
	names := make([]string, 0, len(kb.Profiles))
	for name := range kb.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Retrieve returns the snippet of the first rule with a keyword contained in
// the lowercased query, or the fallback snippet when nothing matches.
func (p *Profile) Retrieve(query string) Snippet {
	q := strings.ToLower(query)
	for _, rule := range p.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return Snippet{Rule: rule.Name, Text: rule.Snippet}
			}
		}
	}
	return Snippet{Rule: p.Fallback.Name, Text: p.Fallback.Snippet}
}
