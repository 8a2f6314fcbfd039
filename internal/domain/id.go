package domain

import "regexp"

// idPattern matches a StarkNet felt address: 0x followed by up to 64 hex
// digits.
var idPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// IsValidID reports whether id has the shape of an entity address.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}
