package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxPictureNameLength bounds picture names in scene files.
const maxPictureNameLength = 128

// pictureNameRegex matches picture names usable as DOT identifiers and keys.
var pictureNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.:-]*$`)

// ValidatePictureName validates the name of a picture in a scene file.
//
// Names must start with a letter or underscore and may contain letters,
// digits, and the characters "_.:-". They are used as map keys and as
// Graphviz node identifiers.
func ValidatePictureName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPicture, "picture name cannot be empty")
	}
	if len(name) > maxPictureNameLength {
		return New(ErrCodeInvalidPicture, "picture name too long (max %d characters)", maxPictureNameLength)
	}
	if !pictureNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPicture, "invalid picture name: %q", name)
	}
	return nil
}

// ValidatePath validates a scene file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateFormat checks that format is one of allowed (case-insensitive).
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
