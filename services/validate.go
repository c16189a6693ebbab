package services

import (
	"regexp"
	"strings"

	"github.com/madins005/KSM-Education-Home-Journal/models"
)

var (
	// Indonesian mobile numbers: 08..., +628... or 00628... with 9 to 13
	// digits after the prefix.
	phonePattern = regexp.MustCompile(`^(?:(?:\+|00)62|0)8[1-9][0-9]{7,11}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var allowedCoverMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// normalizePhone strips everything but digits, keeping a leading "+" so
// the international prefix stays matchable.
func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether the contact string is a plausible local
// mobile number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(normalizePhone(s))
}

// ValidateDraft checks a submission before any store write. requireFile
// is true for new records; edits keep the already-stored file.
func ValidateDraft(d *models.Draft, requireFile bool, maxCoverBytes int64) *ValidationError {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(d.Abstract) == "" {
		return &ValidationError{Field: "abstract", Reason: "must not be empty"}
	}
	if len(nonEmpty(d.Authors)) == 0 {
		return &ValidationError{Field: "authors", Reason: "at least one author is required"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(d.Email)) {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	if !ValidPhone(d.Contact) {
		return &ValidationError{Field: "contact", Reason: "not a valid mobile number (08xxxxxxxxx)"}
	}
	if requireFile && d.FileName == "" {
		return &ValidationError{Field: "file", Reason: "a document must be attached"}
	}
	if d.CoverImage != "" {
		if d.CoverSize > maxCoverBytes {
			return &ValidationError{Field: "cover", Reason: "image exceeds the size limit"}
		}
		if d.CoverMIME != "" && !allowedCoverMIMEs[d.CoverMIME] {
			return &ValidationError{Field: "cover", Reason: "image must be JPG, PNG or GIF"}
		}
	}
	return nil
}

// ValidatePatch checks the fields an edit actually touches.
func ValidatePatch(p *models.Patch) *ValidationError {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Abstract != nil && strings.TrimSpace(*p.Abstract) == "" {
		return &ValidationError{Field: "abstract", Reason: "must not be empty"}
	}
	if p.Authors != nil && len(nonEmpty(p.Authors)) == 0 {
		return &ValidationError{Field: "authors", Reason: "at least one author is required"}
	}
	if p.Email != nil && !emailPattern.MatchString(strings.TrimSpace(*p.Email)) {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	if p.Contact != nil && !ValidPhone(*p.Contact) {
		return &ValidationError{Field: "contact", Reason: "not a valid mobile number"}
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}
