// Package recipient filters and renders the recipients of an SMS batch.
package recipient

import "strings"

// Partition splits recipients into those starting with prefix and the rest.
// Both slices keep input order. No other validation is applied to numbers.
func Partition(recipients []string, prefix string) (valid, invalid []string) {
	valid = make([]string, 0, len(recipients))
	invalid = make([]string, 0)

	for _, r := range recipients {
		if strings.HasPrefix(r, prefix) {
			valid = append(valid, r)
			continue
		}
		invalid = append(invalid, r)
	}

	return valid, invalid
}

// Render substitutes referenceURL for every placeholder in template.
func Render(template, placeholder, referenceURL string) string {
	return strings.ReplaceAll(template, placeholder, referenceURL)
}
