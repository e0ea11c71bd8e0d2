package registry

import (
	"strings"

	"github.com/voltaic-labs/examdex/internal/domain"
)

// RegistryName is the registry-name token that may prefix a cited code,
// e.g. "KEC 232.8".
const RegistryName = "KEC"

var regulations = []domain.RegulationEntry{
	{Code: "112", Title: "Definitions"},
	{Code: "121", Title: "Selection of electrical equipment"},
	{Code: "122", Title: "Conductors and cables"},
	{Code: "131", Title: "Protection against electric shock"},
	{Code: "132", Title: "Protection against thermal effects"},
	{Code: "141", Title: "Protective bonding conductors"},
	{Code: "142", Title: "Grounding systems"},
	{Code: "142.2", Title: "Grounding system requirements"},
	{Code: "142.3", Title: "Grounding electrodes and conductors"},
	{Code: "152", Title: "Lightning protection"},
	{Code: "211", Title: "Protection against electric shock in LV installations"},
	{Code: "212", Title: "Overcurrent protection"},
	{Code: "231", Title: "Common rules for wiring systems"},
	{Code: "232", Title: "Selection and erection of wiring systems"},
	{Code: "232.1", Title: "Wiring system selection"},
	{Code: "232.8", Title: "Cable tray systems"},
	{Code: "232.81", Title: "Cable tray installation"},
	{Code: "232.82", Title: "Cable tray loading"},
	{Code: "234", Title: "Luminaires and lighting installations"},
	{Code: "241", Title: "Special installations"},
	{Code: "311", Title: "HV/LV substation common requirements"},
	{Code: "341", Title: "HV switchgear and controlgear"},
}

var regulationIndex = func() map[string]domain.RegulationEntry {
	idx := make(map[string]domain.RegulationEntry, len(regulations))
	for _, r := range regulations {
		idx[strings.ToLower(r.Code)] = r
	}
	return idx
}()

// Regulations returns all known regulation entries.
func Regulations() []domain.RegulationEntry {
	return regulations
}

// LookupRegulation finds a regulation entry by code, case-insensitively.
// A leading registry-name token ("KEC 232.8") is tolerated.
func LookupRegulation(code string) (domain.RegulationEntry, bool) {
	key := strings.ToLower(strings.TrimSpace(code))
	key = strings.TrimSpace(strings.TrimPrefix(key, strings.ToLower(RegistryName)))
	entry, ok := regulationIndex[key]
	return entry, ok
}
