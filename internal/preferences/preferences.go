// Package preferences infers what a user is looking for (languages, topics,
// experience) from free text and keeps the bounded, per-session record of it.
package preferences

import (
	"slices"
	"strings"
	"time"
)

// SkillLevel is the coarse three-tier experience classification.
type SkillLevel string

const (
	Beginner     SkillLevel = "beginner"
	Intermediate SkillLevel = "intermediate"
	Advanced     SkillLevel = "advanced"
)

// List caps.
const (
	MaxLanguages     = 5
	MaxInterests     = 7
	MaxQueries       = 5
	MaxPreviousRepos = 15
)

// Categories recorded in Preferences.Updated.
const (
	CategoryLanguages     = "languages"
	CategoryInterests     = "interests"
	CategorySkillLevel    = "skill_level"
	CategoryPreviousRepos = "previous_repos"
)

// Preferences is the mutable preference state of one conversation.
// Every list is capped and duplicate-free; the most recent value sits last.
type Preferences struct {
	Languages     []string             `json:"languages"`
	Interests     []string             `json:"interests"`
	PreviousRepos []string             `json:"previous_repos"`
	SkillLevel    SkillLevel           `json:"skill_level"`
	LastQueries   []string             `json:"last_queries"`
	Updated       map[string]time.Time `json:"preferences_updated"`
}

// New returns the initial state: empty lists and a beginner skill level.
func New() *Preferences {
	return &Preferences{
		Languages:     []string{},
		Interests:     []string{},
		PreviousRepos: []string{},
		SkillLevel:    Beginner,
		LastQueries:   []string{},
		Updated:       map[string]time.Time{},
	}
}

// Update records the question and folds every detected signal into p.
// It returns the signals found in this question alone.
func (p *Preferences) Update(question string, now time.Time) Signals {
	if q := strings.TrimSpace(question); q != "" {
		p.LastQueries = pushCapped(p.LastQueries, q, MaxQueries)
	}

	sig := Extract(question)

	if len(sig.Languages) > 0 {
		next := p.Languages
		for _, lang := range sig.Languages {
			next = pushCapped(next, lang, MaxLanguages)
		}
		p.setList(&p.Languages, next, CategoryLanguages, now)
	}

	if len(sig.Interests) > 0 {
		next := p.Interests
		for _, interest := range sig.Interests {
			next = pushCapped(next, interest, MaxInterests)
		}
		p.setList(&p.Interests, next, CategoryInterests, now)
	}

	if sig.SkillDetected && sig.Skill != p.SkillLevel {
		p.SkillLevel = sig.Skill
		p.Updated[CategorySkillLevel] = now
	}

	return sig
}

// RememberRepos appends repository names to the previously-seen list,
// evicting the oldest beyond MaxPreviousRepos.
func (p *Preferences) RememberRepos(now time.Time, names ...string) {
	next := p.PreviousRepos
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			next = pushCapped(next, name, MaxPreviousRepos)
		}
	}
	p.setList(&p.PreviousRepos, next, CategoryPreviousRepos, now)
}

// LastRepo is the most recently discussed repository, or "".
func (p *Preferences) LastRepo() string {
	if len(p.PreviousRepos) == 0 {
		return ""
	}
	return p.PreviousRepos[len(p.PreviousRepos)-1]
}

// RecentLanguage is the most recently mentioned language, or "".
func (p *Preferences) RecentLanguage() string {
	if len(p.Languages) == 0 {
		return ""
	}
	return p.Languages[len(p.Languages)-1]
}

// RecentInterest is the most recently mentioned interest, or "".
func (p *Preferences) RecentInterest() string {
	if len(p.Interests) == 0 {
		return ""
	}
	return p.Interests[len(p.Interests)-1]
}

// Snapshot returns a deep copy safe to serialise after the session lock is released.
func (p *Preferences) Snapshot() Preferences {
	updated := make(map[string]time.Time, len(p.Updated))
	for k, v := range p.Updated {
		updated[k] = v
	}
	return Preferences{
		Languages:     slices.Clone(p.Languages),
		Interests:     slices.Clone(p.Interests),
		PreviousRepos: slices.Clone(p.PreviousRepos),
		SkillLevel:    p.SkillLevel,
		LastQueries:   slices.Clone(p.LastQueries),
		Updated:       updated,
	}
}

func (p *Preferences) setList(dst *[]string, next []string, category string, now time.Time) {
	if slices.Equal(*dst, next) {
		return
	}
	*dst = next
	p.Updated[category] = now
}

// pushCapped moves v to the end of list (appending it if absent) and drops
// the oldest entries beyond limit. The input slice is not modified.
func pushCapped(list []string, v string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	out = append(out, v)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
