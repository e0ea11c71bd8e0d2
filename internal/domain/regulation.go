package domain

// RegulationEntry is a known regulation code and its title. Codes are
// dot-delimited hierarchical strings (e.g. "232.8"), optionally cited with
// a registry-name prefix such as "KEC 232.8".
type RegulationEntry struct {
	Code  string
	Title string
}
