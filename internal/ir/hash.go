package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTransition prefixes transition hashes. The version suffix allows a
// future change of algorithm.
const DomainTransition = "heaplab/transition/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TransitionID computes the content-addressed id of a transition.
// The same run, seq, action and states always hash to the same id, so a
// replayed transition collides with the stored one.
func TransitionID(runID string, seq int64, stage StageName, action ActionKind, pre, post Object) (string, error) {
	obj := Object{
		"run_id":     String(runID),
		"seq":        Int(seq),
		"stage":      String(stage),
		"action":     String(action),
		"pre_state":  pre,
		"post_state": post,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransitionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransition, canonical), nil
}

// MustTransitionID is like TransitionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTransitionID(runID string, seq int64, stage StageName, action ActionKind, pre, post Object) string {
	id, err := TransitionID(runID, seq, stage, action, pre, post)
	if err != nil {
		panic(err)
	}
	return id
}
