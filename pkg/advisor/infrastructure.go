package advisor

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Infrastructure is a synthetic projection of a campaign's field
// organisation in one region. It is derived from the game seed, the region
// and the turn, so it never needs to be stored.
type Infrastructure struct {
	RegionID              string  `json:"regionId"`
	Staff                 int     `json:"staff"`
	RecommendedStaff      int     `json:"recommendedStaff"`
	Volunteers            int     `json:"volunteers"`
	RecommendedVolunteers int     `json:"recommendedVolunteers"`
	FacilityQuality       float64 `json:"facilityQuality"`
	Score                 float64 `json:"score"`
}

// noise frequency along the turn axis; staffing drifts slowly week to week.
const turnFrequency = 0.2

// InfrastructureFor projects the role's field organisation in r.
func InfrastructureFor(gs *campaign.GameState, role campaign.Role, r *campaign.Region) Infrastructure {
	seed := gs.Seed
	if role == campaign.Opponent {
		seed += 7919
	}
	noise := opensimplex.NewNormalized(seed)
	x := float64(regionIndex(gs, r.ID)) * 3.1
	y := float64(gs.Turn) * turnFrequency

	battleground := 1.0
	if r.IsBattleground() {
		battleground = 2
	}
	maxTurns := float64(max(gs.MaxTurns, 1))
	urgency := 1 + (1 - float64(gs.TurnsRemaining())/maxTurns)

	baseStaff := float64(r.ElectoralVotes) * 8 * battleground
	baseVolunteers := float64(r.ElectoralVotes) * 80 * battleground
	recStaff := baseStaff * urgency
	recVolunteers := baseVolunteers * urgency

	// Existing organisation covers 30-100% of the unscaled need.
	staff := baseStaff * (0.3 + 0.7*noise.Eval2(x, y))
	volunteers := baseVolunteers * (0.3 + 0.7*noise.Eval2(x+50, y))
	facility := noise.Eval2(x+100, y)

	score := (ratio(staff, recStaff)*0.4 + ratio(volunteers, recVolunteers)*0.3 + facility*0.3) * 100
	return Infrastructure{
		RegionID:              r.ID,
		Staff:                 int(math.Round(staff)),
		RecommendedStaff:      int(math.Round(recStaff)),
		Volunteers:            int(math.Round(volunteers)),
		RecommendedVolunteers: int(math.Round(recVolunteers)),
		FacilityQuality:       facility,
		Score:                 score,
	}
}

func ratio(have, want float64) float64 {
	if want <= 0 {
		return 1
	}
	return math.Min(1, have/want)
}

func regionIndex(gs *campaign.GameState, id string) int {
	for i := range gs.Regions {
		if gs.Regions[i].ID == id {
			return i
		}
	}
	return len(gs.Regions)
}
