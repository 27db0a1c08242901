// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package classify maps raw honeypot command strings to a behavioral category
// and severity using an ordered rule table. Matching is case-insensitive
// regex against the raw text; no shell parsing is attempted. Rules are
// evaluated in table order and the first match wins, so more specific and
// more dangerous patterns must stay ahead of broader ones. Unmatched text
// falls through to (unknown, info), making classification total.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmoreau84/apiarius/internal/models"
)

// Rule is one classification rule: a pattern, the class it assigns, and the
// attack techniques the match implies.
type Rule struct {
	Pattern     string
	Category    models.Category
	Severity    models.Severity
	Description string
	Techniques  []string
}

type compiledRule struct {
	re *regexp.Regexp
	Rule
}

// Analysis is the classification result for a single command.
type Analysis struct {
	Command     string
	Category    models.Category
	Severity    models.Severity
	Description string
	Tags        []string
	Techniques  []string
}

// Classifier classifies commands against the static rule table. It is pure:
// identical input always yields identical output.
type Classifier struct {
	rules []compiledRule
}

// New compiles the default rule table. A pattern that fails to compile is a
// fatal configuration error; the caller must not start accepting events.
func New() (*Classifier, error) {
	return NewWithRules(commandRules)
}

// NewWithRules compiles a custom rule table, preserving its order.
func NewWithRules(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("classify: rule %d (%s): %w", i, r.Pattern, err)
		}
		c.rules = append(c.rules, compiledRule{re: re, Rule: r})
	}
	return c, nil
}

// Classify returns the category and severity for a command. First matching
// rule wins; empty or unmatched commands classify as (unknown, info).
func (c *Classifier) Classify(command string) Analysis {
	command = strings.TrimSpace(command)
	if command == "" {
		return Analysis{
			Category:    models.CategoryUnknown,
			Severity:    models.SeverityInfo,
			Description: "Empty command",
		}
	}

	for _, r := range c.rules {
		if r.re.MatchString(command) {
			return Analysis{
				Command:     command,
				Category:    r.Category,
				Severity:    r.Severity,
				Description: r.Description,
				Tags:        extractTags(command),
				Techniques:  append([]string(nil), r.Techniques...),
			}
		}
	}

	return Analysis{
		Command:     command,
		Category:    models.CategoryUnknown,
		Severity:    models.SeverityInfo,
		Description: "Unclassified command",
		Tags:        extractTags(command),
	}
}

// Rules returns the compiled rule table in evaluation order. Used by the
// technique mapper to build its category-indexed buckets.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Rule
	}
	return out
}

var (
	urlRe      = regexp.MustCompile(`https?://`)
	ipRe       = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	redirectRe = regexp.MustCompile(`>>|>|2>&1`)
)

// extractTags derives structural tags from the raw command text.
func extractTags(command string) []string {
	var tags []string
	if urlRe.MatchString(command) {
		tags = append(tags, "url")
	}
	if ipRe.MatchString(command) {
		tags = append(tags, "ip")
	}
	if strings.Contains(command, "|") {
		tags = append(tags, "piped")
	}
	if redirectRe.MatchString(command) {
		tags = append(tags, "redirect")
	}
	if strings.Contains(command, "$") {
		tags = append(tags, "variable")
	}
	if strings.HasSuffix(strings.TrimRight(command, " \t"), "&") {
		tags = append(tags, "background")
	}
	return tags
}
