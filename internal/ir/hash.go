package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// algorithm change without colliding with old hashes.
const (
	DomainRuleset = "condevent/ruleset/v1"
	DomainTrace   = "condevent/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalRuleset encodes r as canonical JSON, omitting empty fields.
func CanonicalRuleset(r Ruleset) ([]byte, error) {
	return MarshalCanonical(r.canonicalValue())
}

// RulesetHash identifies a ruleset by content. Two rulesets that differ
// only in key order or Unicode normalization hash the same.
func RulesetHash(r Ruleset) (string, error) {
	canonical, err := CanonicalRuleset(r)
	if err != nil {
		return "", fmt.Errorf("RulesetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleset, canonical), nil
}

// MustRulesetHash is like RulesetHash but panics on error.
// Use only in tests or when params are known to be valid.
func MustRulesetHash(r Ruleset) string {
	h, err := RulesetHash(r)
	if err != nil {
		panic(err)
	}
	return h
}

// TraceHash hashes an already canonical trace encoding.
func TraceHash(canonical []byte) string {
	return hashWithDomain(DomainTrace, canonical)
}
