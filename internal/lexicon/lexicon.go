// Package lexicon implements the fixed-pattern matcher behind moderation and
// response triggering. Matching is case-insensitive literal substring
// containment over a fixed, ordered pattern set; there is no tokenization and
// no regex. The pattern sets are compiled once into an Aho-Corasick automaton
// so a message is scanned in a single pass regardless of set size.
package lexicon

import (
	"fmt"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Set is one compiled pattern set. Immutable after construction.
type Set struct {
	name     string
	patterns []string
	machine  *goahocorasick.Machine
}

// NewSet compiles the given literal patterns into a matcher. Patterns are
// lowercased; empty entries are dropped. An empty set matches nothing.
func NewSet(name string, patterns []string) (*Set, error) {
	s := &Set{name: name}
	runes := make([][]rune, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		s.patterns = append(s.patterns, p)
		runes = append(runes, []rune(p))
	}
	if len(runes) == 0 {
		return s, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(runes); err != nil {
		return nil, fmt.Errorf("compile %s patterns: %w", name, err)
	}
	s.machine = m
	return s, nil
}

// MustSet is NewSet for the built-in defaults, which are known to compile.
func MustSet(name string, patterns []string) *Set {
	s, err := NewSet(name, patterns)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Set) Name() string { return s.name }

// Patterns returns the normalized pattern list, in order.
func (s *Set) Patterns() []string { return s.patterns }

// Matches reports whether text contains any pattern, case-insensitively.
func (s *Set) Matches(text string) bool {
	if s == nil || s.machine == nil || text == "" {
		return false
	}
	terms := s.machine.MultiPatternSearch([]rune(strings.ToLower(text)), true)
	return len(terms) > 0
}

// Lexicon bundles the three pattern sets the policies consume.
type Lexicon struct {
	Spam     *Set
	Question *Set
	Greeting *Set
}

// Extend recompiles the sets with extra patterns appended. Nil or empty
// slices leave the corresponding set untouched.
func (l *Lexicon) Extend(spam, question, greeting []string) error {
	var err error
	if len(spam) > 0 {
		if l.Spam, err = NewSet("spam", append(l.Spam.Patterns(), spam...)); err != nil {
			return err
		}
	}
	if len(question) > 0 {
		if l.Question, err = NewSet("question", append(l.Question.Patterns(), question...)); err != nil {
			return err
		}
	}
	if len(greeting) > 0 {
		if l.Greeting, err = NewSet("greeting", append(l.Greeting.Patterns(), greeting...)); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSpamPatterns flags URL markers and promotional phrases.
func DefaultSpamPatterns() []string {
	return []string{
		"http://", "https://", "www.", ".com",
		"buy now", "free money", "lottery", "casino",
		"bitcoin investment", "crypto giveaway", "earn from home",
		"click here", "limited offer",
	}
}

// DefaultQuestionPatterns flags interrogative messages.
func DefaultQuestionPatterns() []string {
	return []string{
		"?",
		"what", "how", "why", "when", "where", "who",
		"tell me", "explain",
	}
}

// DefaultGreetingPatterns flags greetings addressed to the bot.
func DefaultGreetingPatterns() []string {
	return []string{
		"hello bot", "hi bot", "hey bot",
		"good morning bot", "good evening bot",
	}
}

// Defaults returns the built-in lexicon.
func Defaults() *Lexicon {
	return &Lexicon{
		Spam:     MustSet("spam", DefaultSpamPatterns()),
		Question: MustSet("question", DefaultQuestionPatterns()),
		Greeting: MustSet("greeting", DefaultGreetingPatterns()),
	}
}
