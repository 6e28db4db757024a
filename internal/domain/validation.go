package domain

import "unicode"

// validOwner rejects the empty string and purely numeric owners.
func validOwner(owner string) bool {
	if owner == "" {
		return false
	}
	for _, r := range owner {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
