package domain

import "fmt"

// EntityKind identifies what an entity id refers to.
type EntityKind string

const (
	KindToken   EntityKind = "token"
	KindPool    EntityKind = "pool"
	KindFactory EntityKind = "factory"
)

// Kinds lists every supported entity kind.
var Kinds = []EntityKind{KindToken, KindPool, KindFactory}

// String returns the string representation of EntityKind.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k EntityKind) IsValid() bool {
	return k == KindToken || k == KindPool || k == KindFactory
}

// ParseKind converts a string (singular or plural) to an EntityKind.
func ParseKind(s string) (EntityKind, error) {
	switch s {
	case "token", "tokens":
		return KindToken, nil
	case "pool", "pools", "pair", "pairs":
		return KindPool, nil
	case "factory", "factories", "global":
		return KindFactory, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}
