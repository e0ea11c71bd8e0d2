// Package registry holds the static lookup tables the engines score and
// verify against: specialist categories with weighted keywords, known
// formula templates, and the KEC regulation code index. Everything here is
// built once at process start and never mutated afterward.
package registry

import "github.com/voltaic-labs/examdex/internal/domain"

// DefaultCategory is returned by classification when no keyword matches.
const DefaultCategory = domain.CategoryGeneral

func kw(term string, weight float64) domain.Keyword {
	return domain.Keyword{Term: term, Weight: weight}
}

var categories = []domain.Category{
	{
		ID:          domain.CategoryWiring,
		DisplayName: "Wiring Systems",
		Keywords: []domain.Keyword{
			kw("wiring", 2),
			kw("cable", 1),
			kw("conduit", 1),
			kw("raceway", 1),
			kw("conductor", 1),
			kw("ampacity", 2),
			kw("voltage drop", 2),
			kw("branch circuit", 1),
			kw("circuit breaker", 1),
			kw("insulation", 1),
		},
	},
	{
		ID:          domain.CategoryLighting,
		DisplayName: "Lighting Design",
		Keywords: []domain.Keyword{
			kw("lighting", 2),
			kw("luminaire", 2),
			kw("lamp", 1),
			kw("lumen", 2),
			kw("illuminance", 2),
			kw("lux", 1),
			kw("fixture", 1),
			kw("glare", 1),
			kw("utilization factor", 1),
		},
	},
	{
		ID:          domain.CategoryGrounding,
		DisplayName: "Grounding and Bonding",
		Keywords: []domain.Keyword{
			kw("grounding", 2),
			kw("ground", 1),
			kw("earthing", 2),
			kw("earth electrode", 2),
			kw("bonding", 1),
			kw("lightning", 1),
			kw("ground resistance", 2),
			kw("surge", 1),
		},
	},
	{
		ID:          domain.CategoryMachines,
		DisplayName: "Electrical Machines",
		Keywords: []domain.Keyword{
			kw("motor", 2),
			kw("induction", 1),
			kw("synchronous", 1),
			kw("torque", 1),
			kw("slip", 1),
			kw("starting current", 2),
			kw("transformer", 1),
			kw("generator", 1),
			kw("winding", 1),
		},
	},
	{
		ID:          domain.CategoryPower,
		DisplayName: "Power Distribution",
		Keywords: []domain.Keyword{
			kw("power factor", 2),
			kw("demand factor", 2),
			kw("load", 1),
			kw("feeder", 1),
			kw("distribution", 1),
			kw("substation", 1),
			kw("capacitor", 1),
			kw("short circuit", 1),
			kw("busbar", 1),
		},
	},
	{
		ID:          domain.CategoryRegulation,
		DisplayName: "KEC Regulations",
		Keywords: []domain.Keyword{
			kw("kec", 2),
			kw("regulation", 2),
			kw("code", 1),
			kw("standard", 1),
			kw("article", 1),
			kw("clause", 1),
			kw("provision", 1),
			kw("compliance", 1),
			kw("shall", 1),
		},
	},
}

// A question that touches a compliance regulation should still surface the
// regulation specialist even when routed elsewhere.
var crossLinks = []domain.CrossLink{
	{Trigger: domain.CategoryRegulation, AlsoInclude: domain.CategoryRegulation},
}

// Categories returns the fixed category set, in registry order.
func Categories() []domain.Category {
	return categories
}

// CrossLinks returns the declarative secondary-routing rules.
func CrossLinks() []domain.CrossLink {
	return crossLinks
}

// CategoryByID looks up a category by ID. The default fallback category is
// not part of the scored set.
func CategoryByID(id domain.CategoryID) (domain.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}
