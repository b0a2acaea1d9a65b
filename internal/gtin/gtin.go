package gtin

import (
	"fmt"
	"strings"
)

// Supported GTIN lengths: GTIN-8 (EAN-8), GTIN-12 (UPC-A), GTIN-13 (EAN-13)
// and GTIN-14 (ITF-14).
var validLengths = map[int]string{
	8:  "GTIN-8",
	12: "GTIN-12",
	13: "GTIN-13",
	14: "GTIN-14",
}

// Reason identifies why a code failed validation
type Reason int

const (
	// ReasonEmpty means the code was empty after trimming
	ReasonEmpty Reason = iota
	// ReasonNonDigit means the code contains something other than 0-9
	ReasonNonDigit
	// ReasonLength means the code is not 8, 12, 13 or 14 digits long
	ReasonLength
	// ReasonChecksum means the check digit does not match
	ReasonChecksum
)

// ValidationError describes a code that is not a valid GTIN
type ValidationError struct {
	Code   string
	Reason Reason
	Detail string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid GTIN %q: %s", e.Code, e.Detail)
}

// IsGS1Like reports whether code is exactly 8, 12, 13 or 14 ASCII digits.
// Surrounding whitespace is not stripped.
func IsGS1Like(code string) bool {
	if _, ok := validLengths[len(code)]; !ok {
		return false
	}
	return allDigits(code)
}

// ChecksumValid trims code and reports whether it is GS1-like with a
// matching Mod-10 check digit.
func ChecksumValid(code string) bool {
	code = strings.TrimSpace(code)
	if !IsGS1Like(code) {
		return false
	}
	want, err := CheckDigit(code[:len(code)-1])
	if err != nil {
		return false
	}
	return code[len(code)-1] == want
}

// CheckDigit computes the GS1 Mod-10 check digit for body, which is the code
// without its final digit. Weights alternate 3/1 starting with 3 at the
// rightmost position.
func CheckDigit(body string) (byte, error) {
	if body == "" || !allDigits(body) {
		return 0, fmt.Errorf("check digit body must be non-empty digits, got %q", body)
	}

	total := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		total += int(body[i]-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}
	return byte('0' + (10-total%10)%10), nil
}

// Kind returns the GTIN family name ("GTIN-13", ...) for a GS1-like code
func Kind(code string) string {
	if !IsGS1Like(code) {
		return ""
	}
	return validLengths[len(code)]
}

// Validate trims code and returns a *ValidationError when it is not a valid
// GTIN-8/12/13/14.
func Validate(code string) error {
	trimmed := strings.TrimSpace(code)

	if trimmed == "" {
		return &ValidationError{Code: code, Reason: ReasonEmpty, Detail: "code is empty"}
	}
	if !allDigits(trimmed) {
		return &ValidationError{Code: code, Reason: ReasonNonDigit, Detail: "code must contain digits only"}
	}
	if _, ok := validLengths[len(trimmed)]; !ok {
		return &ValidationError{
			Code:   code,
			Reason: ReasonLength,
			Detail: fmt.Sprintf("length must be 8, 12, 13 or 14 digits, got %d", len(trimmed)),
		}
	}
	if !ChecksumValid(trimmed) {
		want, _ := CheckDigit(trimmed[:len(trimmed)-1])
		return &ValidationError{
			Code:   code,
			Reason: ReasonChecksum,
			Detail: fmt.Sprintf("check digit mismatch: expected %c, got %c", want, trimmed[len(trimmed)-1]),
		}
	}
	return nil
}

// IsValidationError checks if an error is a GTIN validation error
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
