package domain

// InputValidation accumulates every structural problem with a submitted
// question. Errors is empty when Valid is true.
type InputValidation struct {
	Valid  bool
	Errors []string
}

// CalculationCheck is the outcome of checking one formula calculation.
// An unrecognized formula or missing variables leave Valid true with
// Verified false: absence of a known template never fails the pipeline.
type CalculationCheck struct {
	Valid            bool
	Verified         bool
	CalculatedResult float64
	Error            string
}

// VerificationOutcome annotates a generated answer. All current checks are
// soft: warnings and corrections accumulate and Valid stays true.
type VerificationOutcome struct {
	Valid       bool
	Warnings    []string
	Corrections []string
}

// FormulaUse is one formula application claimed by a generated solution.
type FormulaUse struct {
	Expression string
	Variables  map[string]float64
	Result     float64
}

// Solution is the draft answer produced by the external solver.
type Solution struct {
	Answer       string
	Steps        []string
	Formulas     []FormulaUse
	RelatedCodes []string
	Confidence   float64
}
