// Package phone normalizes locally-formatted phone numbers to E.164.
package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the numbering plan assumed for numbers given without a
// country code.
const DefaultRegion = "AU"

// Normalize rewrites number in E.164 form for the given default region:
// a leading "+", country calling code, then subscriber digits with no
// separators. Input already in E.164 form comes back unchanged.
//
// region is an ISO 3166-1 alpha-2 code such as "AU"; it only matters for
// numbers that do not carry their own country code.
func Normalize(number, region string) (string, error) {
	num, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", fmt.Errorf("parse phone number %q: %w", number, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone number %q is not a valid number for region %s", number, region)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
