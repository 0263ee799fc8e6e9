package rating

import "math"

// conservativeSigmas is how many uncertainties are subtracted from skill for ranking.
const conservativeSigmas = 3

func ConservativeRating(skill, uncertainty float64) float64 {
	return skill - conservativeSigmas*uncertainty
}

type Tier struct {
	Name      string
	Divisions int
	Min       float64
	Max       float64
}

// Tiers is ordered by ascending conservative rating; each range is [Min, Max).
var Tiers = []Tier{
	{Name: "bronze", Divisions: 4, Min: 0, Max: 1200},
	{Name: "silver", Divisions: 4, Min: 1200, Max: 1600},
	{Name: "gold", Divisions: 4, Min: 1600, Max: 2000},
	{Name: "platinum", Divisions: 4, Min: 2000, Max: 2400},
	{Name: "diamond", Divisions: 4, Min: 2400, Max: 2800},
	{Name: "master", Divisions: 1, Min: 2800, Max: 3200},
	{Name: "grandmaster", Divisions: 1, Min: 3200, Max: 3600},
	{Name: "mythic", Divisions: 1, Min: 3600, Max: math.Inf(1)},
}

// TierFor maps a conservative rating to a tier name and a 1-based division.
// Ratings below the first tier land in its lowest division.
func TierFor(conservative float64) (string, int) {
	for _, tier := range Tiers {
		if conservative >= tier.Max {
			continue
		}

		if conservative < tier.Min || tier.Divisions <= 1 {
			return tier.Name, 1
		}

		span := (tier.Max - tier.Min) / float64(tier.Divisions)

		return tier.Name, min(tier.Divisions, int((conservative-tier.Min)/span)+1)
	}

	last := Tiers[len(Tiers)-1]

	return last.Name, 1
}
