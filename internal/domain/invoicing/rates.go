package invoicing

import "crewplan/internal/domain/core"

var domesticNames = map[string]bool{
	"czech republic":  true,
	"czechia":         true,
	"cz":              true,
	"cze":             true,
	"cesko":           true,
	"ceska republika": true,
}

// IsDomestic reports whether a project country is billed at domestic rates.
// An unset country counts as domestic. extra is an additional accepted name.
func IsDomestic(country, extra string) bool {
	c := normalizeCountry(country)
	if c == "" || domesticNames[c] {
		return true
	}
	return extra != "" && c == normalizeCountry(extra)
}

// RatesFor picks the per-km rates for a project once; every worker on the
// invoice is billed with the same pair.
func RatesFor(project core.Project, rates TransportRates, domesticCountry string) KmRates {
	if IsDomestic(project.Country, domesticCountry) {
		return KmRates{Driver: rates.DomesticDriverKm, Crew: rates.DomesticCrewKm, Domestic: true}
	}
	return KmRates{Driver: rates.InternationalDriverKm, Crew: rates.InternationalCrewKm}
}
