// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package guardrails implements the response-quality and hallucination-risk
// guard engine. Given a generated response, the originating question, and the
// context the model was supposed to ground its answer in, it produces a
// structured verdict (quality tier, confidence score, warnings, suggestions,
// source coverage) and can rewrite the response with a tier-appropriate
// disclaimer.
//
// The engine is pure in-memory text scanning and arithmetic: it performs no
// I/O, calls no external model, and keeps no state across invocations. A
// single PatternLibrary instance is safe for unlimited concurrent readers,
// so the detector, validator, and coordinator may be constructed once per
// process and reused across arbitrarily many concurrent calls.
package guardrails

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/petrelai/PetrelGuard/services/guardrails/rules"
	"gopkg.in/yaml.v3"
)

// ConfidenceTier labels the confidence-indicator rule sets.
type ConfidenceTier string

const (
	IndicatorHigh   ConfidenceTier = "high"
	IndicatorMedium ConfidenceTier = "medium"
	IndicatorLow    ConfidenceTier = "low"
)

// wordPattern tokenizes text the same way on both sides of every overlap
// check: maximal runs of word characters, lowercased by the caller.
var wordPattern = regexp.MustCompile(`\w+`)

// PatternRule is a single named textual pattern as declared in the embedded
// YAML rule file. Rules are read-only process-wide configuration.
type PatternRule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Regex       string `yaml:"regex"`
}

// CompiledRule pairs a PatternRule with its compiled regex.
//
// The rules rely on negative lookahead ("cue word NOT followed later in the
// response by an attribution phrase"), which Go's RE2 engine does not
// support, so they compile with regexp2. All rules match case-insensitively.
type CompiledRule struct {
	PatternRule
	re *regexp2.Regexp
}

// Matches reports whether the rule matches s. A regexp2 match error (only
// possible with a match timeout, which the library does not set) is treated
// as no match.
func (r CompiledRule) Matches(s string) bool {
	ok, err := r.re.MatchString(s)
	return err == nil && ok
}

// patternFile mirrors the structure of guardrail_patterns.yaml.
type patternFile struct {
	HallucinationRules  []PatternRule                   `yaml:"hallucination_rules"`
	OverconfidenceRules []PatternRule                   `yaml:"overconfidence_rules"`
	InappropriateRules  []PatternRule                   `yaml:"inappropriate_rules"`
	OffTopicRules       []PatternRule                   `yaml:"off_topic_rules"`
	Confidence          map[ConfidenceTier][]PatternRule `yaml:"confidence_indicators"`
	Scoring             scoringConfig                   `yaml:"scoring"`
	StopWords           []string                        `yaml:"stop_words"`
}

type scoringConfig struct {
	AttributionRegex    string   `yaml:"attribution_regex"`
	UncertaintyMarkers  []string `yaml:"uncertainty_markers"`
	ConfidenceMarkers   []string `yaml:"confidence_markers"`
	GroundingIndicators []string `yaml:"grounding_indicators"`
}

// PatternLibrary holds all compiled guard rules and scoring word lists.
//
// A library is constructed once at process start from the YAML embedded in
// the binary and is never mutated afterwards, so it needs no synchronization:
// there is no writer after initialization.
type PatternLibrary struct {
	hallucination  []CompiledRule
	overconfidence []CompiledRule
	inappropriate  []CompiledRule
	offTopic       []CompiledRule
	confidence     map[ConfidenceTier][]CompiledRule

	attribution         *regexp2.Regexp
	uncertaintyMarkers  []string
	confidenceMarkers   []string
	groundingIndicators []string
	stopWords           map[string]struct{}
}

// LoadPatternLibrary parses the embedded rule file and compiles every regex.
//
// Returns an error if the embedded YAML is malformed or contains an invalid
// pattern. Both indicate a broken build rather than a runtime condition, so
// callers typically treat a failure here as fatal.
func LoadPatternLibrary() (*PatternLibrary, error) {
	var file patternFile
	if err := yaml.Unmarshal(rules.GuardrailPatterns, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded rule file: %w", err)
	}

	lib := &PatternLibrary{
		confidence:          make(map[ConfidenceTier][]CompiledRule, len(file.Confidence)),
		uncertaintyMarkers:  file.Scoring.UncertaintyMarkers,
		confidenceMarkers:   file.Scoring.ConfidenceMarkers,
		groundingIndicators: file.Scoring.GroundingIndicators,
		stopWords:           make(map[string]struct{}, len(file.StopWords)),
	}

	var err error
	if lib.hallucination, err = compileRules(file.HallucinationRules); err != nil {
		return nil, err
	}
	if lib.overconfidence, err = compileRules(file.OverconfidenceRules); err != nil {
		return nil, err
	}
	if lib.inappropriate, err = compileRules(file.InappropriateRules); err != nil {
		return nil, err
	}
	if lib.offTopic, err = compileRules(file.OffTopicRules); err != nil {
		return nil, err
	}
	for tier, tierRules := range file.Confidence {
		compiled, err := compileRules(tierRules)
		if err != nil {
			return nil, err
		}
		lib.confidence[tier] = compiled
	}

	lib.attribution, err = regexp2.Compile(file.Scoring.AttributionRegex, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("failed to compile the attribution regex: %w", err)
	}

	for _, w := range file.StopWords {
		lib.stopWords[strings.ToLower(w)] = struct{}{}
	}

	return lib, nil
}

// MustLoadPatternLibrary is LoadPatternLibrary for process initialization
// paths where a malformed embedded rule file should fail fast.
func MustLoadPatternLibrary() *PatternLibrary {
	lib, err := LoadPatternLibrary()
	if err != nil {
		panic(err)
	}
	return lib
}

func compileRules(src []PatternRule) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(src))
	for _, rule := range src {
		re, err := regexp2.Compile(rule.Regex, regexp2.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
		compiled = append(compiled, CompiledRule{PatternRule: rule, re: re})
	}
	return compiled, nil
}

// HallucinationRules returns the hallucination-cue rule set.
func (l *PatternLibrary) HallucinationRules() []CompiledRule { return l.hallucination }

// OverconfidenceRules returns the unattributed-certainty rule set.
func (l *PatternLibrary) OverconfidenceRules() []CompiledRule { return l.overconfidence }

// InappropriateRules returns the inappropriate-content rule set.
func (l *PatternLibrary) InappropriateRules() []CompiledRule { return l.inappropriate }

// OffTopicRules returns the off-topic cue rule set.
func (l *PatternLibrary) OffTopicRules() []CompiledRule { return l.offTopic }

// ConfidenceIndicators returns the indicator rule set for a tier.
func (l *PatternLibrary) ConfidenceIndicators(tier ConfidenceTier) []CompiledRule {
	return l.confidence[tier]
}

// HasAttribution reports whether the text carries a source-attribution
// phrase ("according to", "based on", and so on).
func (l *PatternLibrary) HasAttribution(text string) bool {
	ok, err := l.attribution.MatchString(text)
	return err == nil && ok
}

// IsStopWord reports whether the lowercased word is in the stop-word set.
func (l *PatternLibrary) IsStopWord(word string) bool {
	_, ok := l.stopWords[word]
	return ok
}

// ContentWords tokenizes text into its set of unique lowercase words with
// stop words removed. This is the vocabulary used by every overlap check in
// the engine (grounding, topicality, source coverage).
func (l *PatternLibrary) ContentWords(text string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if l.IsStopWord(w) {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
