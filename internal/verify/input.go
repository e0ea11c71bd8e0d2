// Package verify checks submitted questions and generated answers: input
// guardrails, formula/numeric consistency against known templates, and
// cited regulation codes against the KEC registry.
package verify

import (
	"fmt"
	"regexp"

	"github.com/voltaic-labs/examdex/internal/domain"
)

const (
	minQuestionChars = 5
	maxQuestionChars = 4000

	// MaxImageBytes is the raw image size limit, before base64 expansion.
	MaxImageBytes = 5 * 1024 * 1024
)

type blockedPattern struct {
	label string
	re    *regexp.Regexp
}

// Personal identifiers and content the service refuses to process. Matches
// are reported by label only; the matched text is never echoed back.
var blockedPatterns = []blockedPattern{
	{"resident registration number", regexp.MustCompile(`\d{6}\s*-\s*[1-4]\d{6}`)},
	{"phone number", regexp.MustCompile(`01[016789]-?\d{3,4}-?\d{4}`)},
	{"email address", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{"payment card number", regexp.MustCompile(`\b(?:\d[ -]?){15,16}\b`)},
}

// AskInput is the user-submitted question payload under validation.
type AskInput struct {
	Text       string
	ImageBytes int
}

// ValidateInput checks the structural constraints on a submitted question.
// All violations accumulate into one list so a UI can show every problem at
// once; it never returns an error for expected bad input.
func ValidateInput(in AskInput) domain.InputValidation {
	var errs []string

	if in.Text == "" && in.ImageBytes == 0 {
		errs = append(errs, "question must include text or an image")
	}

	if in.Text != "" {
		n := len([]rune(in.Text))
		if n < minQuestionChars {
			errs = append(errs, fmt.Sprintf("question text too short: %d chars, minimum %d", n, minQuestionChars))
		}
		if n > maxQuestionChars {
			errs = append(errs, fmt.Sprintf("question text too long: %d chars, maximum %d", n, maxQuestionChars))
		}
		for _, bp := range blockedPatterns {
			if bp.re.MatchString(in.Text) {
				errs = append(errs, "question contains blocked content: "+bp.label)
			}
		}
	}

	if in.ImageBytes > MaxImageBytes {
		errs = append(errs, fmt.Sprintf("image too large: %d bytes, maximum %d", in.ImageBytes, MaxImageBytes))
	}

	return domain.InputValidation{Valid: len(errs) == 0, Errors: errs}
}
