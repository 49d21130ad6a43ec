// Package phone canonicalizes phone numbers to E.164.
package phone

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "US"

// Normalizer formats valid numbers as E.164 and leaves anything it cannot
// parse trimmed but otherwise untouched.
type Normalizer struct {
	region string
}

// NewNormalizer creates a normalizer for the given default region.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: region}
}

// Normalize returns raw in E.164 form when it is a valid number.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, n.region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// Valid reports whether raw parses as a valid number in the default region.
func (n *Normalizer) Valid(raw string) bool {
	num, err := libphonenumber.Parse(strings.TrimSpace(raw), n.region)
	return err == nil && libphonenumber.IsValidNumber(num)
}
