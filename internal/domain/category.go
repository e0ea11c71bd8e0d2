package domain

// CategoryID identifies one of the fixed specialist categories.
type CategoryID string

const (
	CategoryWiring     CategoryID = "wiring"
	CategoryLighting   CategoryID = "lighting"
	CategoryGrounding  CategoryID = "grounding"
	CategoryMachines   CategoryID = "machines"
	CategoryPower      CategoryID = "power"
	CategoryRegulation CategoryID = "regulation"
	CategoryGeneral    CategoryID = "general"
)

// ValidCategory reports whether id names one of the fixed categories.
func ValidCategory(id CategoryID) bool {
	switch id {
	case CategoryWiring, CategoryLighting, CategoryGrounding,
		CategoryMachines, CategoryPower, CategoryRegulation, CategoryGeneral:
		return true
	}
	return false
}

// Keyword is a weighted classification signal for a category.
type Keyword struct {
	Term   string
	Weight float64
}

// Category is an immutable registry entry describing a specialist category.
// Instances are built once at startup and never mutated.
type Category struct {
	ID          CategoryID
	DisplayName string
	Keywords    []Keyword
}

// CrossLink declares that whenever Trigger scores above zero but is not the
// primary category, AlsoInclude is appended to the secondary list.
type CrossLink struct {
	Trigger     CategoryID
	AlsoInclude CategoryID
}
