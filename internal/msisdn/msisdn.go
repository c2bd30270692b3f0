// Package msisdn validates phone numbers and country codes in the forms the
// account API expects: MSISDNs as international digits without a leading
// '+', countries as ISO 3166-1 alpha-2 codes.
package msisdn

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidMSISDN is returned when a number cannot be parsed or is not
// valid for the requested country.
var ErrInvalidMSISDN = errors.New("invalid msisdn")

// ErrInvalidCountry is returned for an unknown country code.
var ErrInvalidCountry = errors.New("invalid country code")

// E.164 bounds on the digits of an international number, calling code
// included.
const (
	minDigits = 7
	maxDigits = 15
)

// Normalize returns raw as international digits without '+' (e.g.
// "442079460958"). Input already in that form is passed through after a
// light check: digits only, length, and a known calling code (the calling
// code of countryCode when one is given). The account API lists numbers
// libphonenumber does not consider valid for their country, such as Isle of
// Man ranges on GB accounts, so validity is not checked.
//
// Formatted input ("+44 20 7946 0958") and national numbers ("020 7946 0958"
// with countryCode set) are converted with libphonenumber first.
func Normalize(countryCode, raw string) (string, error) {
	// Pre-screen: only ASCII digits, '+', and formatting chars allowed.
	plusCount, digitCount, formatted := 0, 0, false
	for _, r := range raw {
		switch {
		case r == '+':
			plusCount++
		case r >= '0' && r <= '9':
			digitCount++
		case r == ' ', r == '-', r == '(', r == ')', r == '.':
			formatted = true
		default:
			return "", ErrInvalidMSISDN
		}
	}
	if plusCount > 1 || digitCount == 0 {
		return "", ErrInvalidMSISDN
	}
	if plusCount == 1 && !strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "", ErrInvalidMSISDN
	}

	region := strings.ToUpper(strings.TrimSpace(countryCode))
	prefix := ""
	if region != "" {
		if !ValidCountryCode(region) {
			return "", ErrInvalidCountry
		}
		prefix = DialingCode(region)
	}

	var digits string
	switch {
	case plusCount == 0 && !formatted && (region == "" || strings.HasPrefix(raw, prefix)):
		digits = raw
	case plusCount == 1:
		num, err := phonenumbers.Parse(raw, "")
		if err != nil {
			return "", ErrInvalidMSISDN
		}
		digits = e164Digits(num)
	case region == "":
		num, err := phonenumbers.Parse("+"+raw, "")
		if err != nil {
			return "", ErrInvalidMSISDN
		}
		digits = e164Digits(num)
	default:
		// National form: the region supplies the calling code.
		num, err := phonenumbers.Parse(raw, region)
		if err != nil || !phonenumbers.IsPossibleNumber(num) {
			return "", ErrInvalidMSISDN
		}
		digits = e164Digits(num)
	}

	if len(digits) < minDigits || len(digits) > maxDigits {
		return "", ErrInvalidMSISDN
	}
	if !knownCallingCode(digits) {
		return "", ErrInvalidMSISDN
	}
	if prefix != "" && !strings.HasPrefix(digits, prefix) {
		return "", ErrInvalidMSISDN
	}
	return digits, nil
}

func e164Digits(num *phonenumbers.PhoneNumber) string {
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
}

// knownCallingCode reports whether digits start with an assigned calling
// code. Calling codes are one to three digits and prefix-free.
func knownCallingCode(digits string) bool {
	for n := 1; n <= 3 && n < len(digits); n++ {
		cc, err := strconv.Atoi(digits[:n])
		if err != nil {
			return false
		}
		if phonenumbers.GetRegionCodeForCountryCode(cc) != phonenumbers.UNKNOWN_REGION {
			return true
		}
	}
	return false
}

// Country returns the ISO region of a digits-only MSISDN, or "" if it
// cannot be parsed.
func Country(msisdn string) string {
	num, err := phonenumbers.Parse("+"+strings.TrimPrefix(msisdn, "+"), "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}

// ValidCountryCode reports whether code is a two-letter region with a
// calling code. Case-insensitive.
func ValidCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	return phonenumbers.GetCountryCodeForRegion(strings.ToUpper(code)) != 0
}

// DialingCode returns the international calling code of a region from the
// bundled metadata ("44" for GB), or "" for an unknown region.
func DialingCode(countryCode string) string {
	cc := phonenumbers.GetCountryCodeForRegion(strings.ToUpper(countryCode))
	if cc == 0 {
		return ""
	}
	return strconv.Itoa(cc)
}
