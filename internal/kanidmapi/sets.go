package kanidmapi

import (
	"sort"
	"strings"
)

// NormalizeOrderedSet lower-cases the part of each value before '@' (see
// normalizeSPN) and deduplicates an ordered list while
// preserving the position of the first occurrence of each element — used for
// mail (head is primary) and other order-significant attributes.
func NormalizeOrderedSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalizeSPN(v)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// NormalizeUnorderedSet normalizes as NormalizeOrderedSet does, then sorts, so
// two semantically equal sets compare equal regardless of original order —
// used for group members, OAuth2 scopes, and claim values.
func NormalizeUnorderedSet(values []string) []string {
	out := NormalizeOrderedSet(values)
	sort.Strings(out)
	return out
}

// normalizeSPN lower-cases the local-part of a name/SPN before '@', leaving
// the realm portion (if any) untouched, per the member/mail normalization rule.
func normalizeSPN(v string) string {
	at := strings.IndexByte(v, '@')
	if at < 0 {
		return strings.ToLower(v)
	}
	return strings.ToLower(v[:at]) + v[at:]
}

// SetsEqual reports whether two already-normalized unordered sets are equal.
func SetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AttributeOp is one diffed attribute operation: present-and-equal,
// present-and-different, create, or delete.
type AttributeOp struct {
	Attribute string
	Kind      AttributeOpKind
	Value     any
}

// AttributeOpKind classifies an AttributeOp.
type AttributeOpKind int

const (
	// OpNoop means the remote value already matches spec; no call is issued.
	OpNoop AttributeOpKind = iota
	// OpSet means PATCH/PUT the attribute to Value (covers both create and update).
	OpSet
	// OpDelete means clear the attribute; only ever produced for explicit
	// set-to-empty, never for an absent/unset spec field.
	OpDelete
)

// DiffScalar diffs one scalar (or pre-normalized slice) attribute against its
// current remote value, implementing the partial-ownership rule: a nil
// desired value is always a no-op regardless of remote state.
func DiffScalar(attribute string, desired, remote any, desiredSet bool) AttributeOp {
	if !desiredSet {
		return AttributeOp{Attribute: attribute, Kind: OpNoop}
	}
	if equalAny(desired, remote) {
		return AttributeOp{Attribute: attribute, Kind: OpNoop}
	}
	if isEmptyValue(desired) {
		return AttributeOp{Attribute: attribute, Kind: OpDelete}
	}
	return AttributeOp{Attribute: attribute, Kind: OpSet, Value: desired}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	default:
		return v == nil
	}
}

func equalAny(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if aok && bok {
		return SetsEqual(as, bs)
	}
	return a == b
}
