package errors

import (
	"regexp"
	"unicode"
)

// maxNameLength bounds block type, input and field names.
const maxNameLength = 128

// nameRegex matches identifiers used for block types, inputs and fields.
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName validates an identifier from a block definition.
//
// The rules are:
//   - No empty names
//   - No control characters
//   - Must start with a letter or underscore
//   - Only letters, digits, '_', '.', '-' afterwards
//   - Maximum length of 128 characters
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid control characters", kind)
		}
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid %s name: %q", kind, name)
	}

	return nil
}

// ValidateCheck validates a connection type-check list. Entries follow the
// same rules as names; duplicates are rejected.
func ValidateCheck(check []string) error {
	seen := make(map[string]bool, len(check))
	for _, c := range check {
		if err := ValidateName("type check", c); err != nil {
			return err
		}
		if seen[c] {
			return New(ErrCodeInvalidName, "duplicate type check %q", c)
		}
		seen[c] = true
	}
	return nil
}
