package verify

import (
	"regexp"
	"strings"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/registry"
)

// confidenceFloor is the quality bar below which an answer is flagged for
// review.
const confidenceFloor = 0.7

// Longest suffixes first so "kVA" is not consumed as "V".
var unitVocabulary = []string{
	"kWh", "kVA", "mm²", "mm2", "kW", "kV", "mA", "kA", "VA", "Hz",
	"lm", "lx", "mm", "cm", "°C", "Ω", "ohm",
	"V", "A", "W", "F", "H", "m", "s", "%",
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ValidateOutput annotates a generated solution: missing fields, low
// confidence, unrecognized regulation citations, and bare numeric answers
// with no unit. Every check is independent and soft; under the current
// policy the outcome is always Valid with accumulated warnings.
func ValidateOutput(sol domain.Solution) domain.VerificationOutcome {
	outcome := domain.VerificationOutcome{Valid: true}

	if strings.TrimSpace(sol.Answer) == "" {
		outcome.Warnings = append(outcome.Warnings, "answer field is empty")
	}
	if len(sol.Steps) == 0 {
		outcome.Warnings = append(outcome.Warnings, "solution steps are missing")
	}
	if len(sol.Formulas) == 0 {
		outcome.Warnings = append(outcome.Warnings, "no formulas cited")
	}

	if sol.Confidence > 0 && sol.Confidence < confidenceFloor {
		outcome.Warnings = append(outcome.Warnings, "low solver confidence, answer may need review")
	}

	for _, code := range sol.RelatedCodes {
		if _, ok := registry.LookupRegulation(code); !ok {
			outcome.Warnings = append(outcome.Warnings, "unrecognized regulation code: "+code)
			outcome.Corrections = append(outcome.Corrections, "verify citation "+code+" against the current KEC index")
		}
	}

	if missingUnit(sol.Answer) {
		outcome.Warnings = append(outcome.Warnings, "numeric answer has no unit")
		outcome.Corrections = append(outcome.Corrections, "append the appropriate SI unit to the final answer")
	}

	return outcome
}

// missingUnit reports whether the answer contains numbers but none of them
// carries a recognizable unit suffix.
func missingUnit(answer string) bool {
	locs := numberPattern.FindAllStringIndex(answer, -1)
	if len(locs) == 0 {
		return false
	}
	for _, loc := range locs {
		rest := strings.TrimLeft(answer[loc[1]:], " \t")
		for _, unit := range unitVocabulary {
			if strings.HasPrefix(rest, unit) {
				return false
			}
		}
	}
	return true
}
