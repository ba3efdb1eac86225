package main

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
)

// excludeMatching drops every discovered test whose relative file
// matches any of the given doublestar glob patterns.
func excludeMatching(tests []identity.DiscoveredTest, patterns []string) ([]identity.DiscoveredTest, error) {
	out := make([]identity.DiscoveredTest, 0, len(tests))
	for _, t := range tests {
		matched := false
		for _, p := range patterns {
			ok, err := doublestar.Match(p, t.File)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, t)
		}
	}
	return out, nil
}
