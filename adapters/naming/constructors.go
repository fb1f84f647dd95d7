package naming

import (
	"synthcap/domain/core"
)

// ConstructorMappingVersion identifies the bundled constructor-name table.
const ConstructorMappingVersion = "constructors-2025.11"

// NewConstructorMapping returns the bundled mapping for championship
// constructor names: sponsor renames and ownership lineages collapse onto
// the institutional identity that persists across them.
func NewConstructorMapping() *Mapping {
	entries := map[string]string{
		// Sauber lineage (Sauber -> Alfa Romeo -> Kick Sauber -> Audi)
		"Sauber":                    "SAUBER",
		"Alfa Romeo":                "SAUBER",
		"Kick Sauber":               "SAUBER",
		"Stake F1 Team Kick Sauber": "SAUBER",
		"Kick Sauber F1 Team":       "SAUBER",

		// Red Bull B-team lineage (Toro Rosso -> AlphaTauri -> RB)
		"Toro Rosso":          "RB",
		"AlphaTauri":          "RB",
		"Scuderia AlphaTauri": "RB",
		"Visa Cash App RB":    "RB",
		"VCARB":               "RB",
		"Racing Bulls":        "RB",
		"RB F1 Team":          "RB",
		"RB":                  "RB",

		// Red Bull Racing
		"Red Bull Racing":        "RED BULL",
		"Oracle Red Bull Racing": "RED BULL",
		"Red Bull":               "RED BULL",

		// Mercedes
		"Mercedes":                      "MERCEDES",
		"Mercedes-AMG Petronas F1 Team": "MERCEDES",

		// Ferrari
		"Ferrari":          "FERRARI",
		"Scuderia Ferrari": "FERRARI",

		// Aston Martin lineage (Force India -> Racing Point -> Aston Martin)
		"Force India":            "ASTON MARTIN",
		"Racing Point":           "ASTON MARTIN",
		"SportPesa Racing Point": "ASTON MARTIN",
		"BWT Racing Point":       "ASTON MARTIN",
		"Aston Martin":           "ASTON MARTIN",
		"Aston Martin Aramco":    "ASTON MARTIN",

		// Alpine lineage (Lotus -> Renault -> Alpine)
		"Lotus F1":           "ALPINE",
		"Renault":            "ALPINE",
		"Renault F1":         "ALPINE",
		"Renault F1 Team":    "ALPINE",
		"Alpine":             "ALPINE",
		"Alpine F1 Team":     "ALPINE",
		"BWT Alpine F1 Team": "ALPINE",

		// McLaren
		"McLaren":         "MCLAREN",
		"McLaren F1 Team": "MCLAREN",

		// Haas (entered 2016)
		"Haas":                   "HAAS",
		"Haas F1 Team":           "HAAS",
		"MoneyGram Haas F1 Team": "HAAS",

		// Williams
		"Williams":        "WILLIAMS",
		"Williams Racing": "WILLIAMS",

		// Historical entries, defunct mid-2010s
		"Marussia":       "MANOR MARUSSIA",
		"Manor Marussia": "MANOR MARUSSIA",
		"Caterham":       "CATERHAM",
	}

	defunct := map[core.UnitKey]core.Period{
		"MANOR MARUSSIA": 2016,
		"CATERHAM":       2014,
	}

	// Ownership/structural shock periods: Force India administration and
	// the Stroll buy-in for Aston Martin, the Dorilton takeover for
	// Williams, the Lotus-to-Renault ownership change for Alpine.
	shocks := map[core.UnitKey][]core.Period{
		"ASTON MARTIN": {2018, 2020},
		"WILLIAMS":     {2020},
		"ALPINE":       {2015},
	}

	return NewMapping(ConstructorMappingVersion, entries, defunct, shocks)
}
