// Package attrs derives the attribute tags of a package and holds the
// per-package metadata that conditions and rules operate on.
package attrs

import (
	"slices"
	"sort"
)

// Well-known attribute tags. [Set] is open; configuration may name tags
// that are never derived, and those simply never match.
const (
	Publishable  = "publishable"
	Private      = "private"
	UI           = "ui"
	UsesTsup     = "usesTsup"
	HasTsx       = "hasTsx"
	Next         = "next"
	Storybook    = "storybook"
	App          = "app"
	Browser      = "browser"
	Node         = "node"
	Worker       = "worker"
	SkipLibCheck = "skipLibCheck"
)

// Known lists the tags [Build] can derive.
var Known = []string{
	Publishable, Private, UI, UsesTsup, HasTsx, Next,
	Storybook, App, Browser, Node, Worker, SkipLibCheck,
}

// Set is a set of attribute tags.
type Set map[string]struct{}

func NewSet(tags ...string) Set {
	s := Set{}
	for _, t := range tags {
		s.Add(t)
	}

	return s
}

func (s Set) Add(tag string) {
	s[tag] = struct{}{}
}

func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAll reports whether s contains every tag.
func (s Set) HasAll(tags ...string) bool {
	for _, t := range tags {
		if !s.Has(t) {
			return false
		}
	}

	return true
}

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// IsKnown reports whether tag is one of [Known].
func IsKnown(tag string) bool {
	return slices.Contains(Known, tag)
}
