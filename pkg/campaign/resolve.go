package campaign

// MultiRegionBonus scales per-region effects when an action targets more than one region.
const MultiRegionBonus = 1.1

// Resolution reports what an action changed.
type Resolution struct {
	Action    Action             `json:"action"`
	Cost      float64            `json:"cost"`
	Support   map[string]float64 `json:"support,omitempty"` // applied delta per region
	Funds     float64            `json:"funds,omitempty"`
	Momentum  int                `json:"momentum,omitempty"`
	Polling   float64            `json:"polling,omitempty"`
	Blocked   bool               `json:"blocked,omitempty"`
	TurnEnded bool               `json:"turnEnded,omitempty"`
}

func tierWeight(tier int) float64 {
	switch tier {
	case 1:
		return 1.4
	case 2:
		return 1.1
	case 3:
		return 0.85
	case 4:
		return 0.6
	}
	return 1.0
}

func effectivenessFactor(score int) float64 {
	switch score {
	case 1:
		return 0.6
	case 2:
		return 1.0
	case 3:
		return 1.5
	}
	return 1.0
}

// RegionMultiplier scales support gains in r for action t by tier, swing
// potential and the region's effectiveness rating.
func RegionMultiplier(r *Region, t ActionType) float64 {
	return (tierWeight(r.Tier) + r.SwingPotential/100*0.2) * effectivenessFactor(r.Score(t))
}

func uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func uniformInt(rng Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// resolve applies an already validated action. It deducts the cost and
// applies the effects; it does not check funds, budget or targets.
func (g *Game) resolve(a Action) Resolution {
	gs := g.state
	actor := gs.Agent(a.Actor)
	res := Resolution{Action: a, Cost: a.Cost()}
	actor.spend(res.Cost)

	bonus := 1.0
	if len(a.Regions) > 1 {
		bonus = MultiRegionBonus
	}

	var lo, hi float64
	switch a.Type {
	case Rally:
		lo, hi = 1, 4
		res.Momentum = uniformInt(g.rng, 2, 5)
		actor.addMomentum(res.Momentum)
	case AdCampaign:
		lo, hi = 2, 6
	case TownHall:
		lo, hi = 1, 3
		res.Polling = 0.5
		actor.addPolling(res.Polling)
	case Grassroots:
		lo, hi = 1, 2
	case Fundraiser:
		mult := gs.Shadow(a.Actor).Integrity.FundraisingMultiplier
		if mult <= 0 {
			mult = 1
		}
		res.Funds = uniform(g.rng, 1_000_000, 3_000_000) * mult
		actor.Funds += res.Funds
	case DebatePrep:
		res.Momentum = uniformInt(g.rng, 3, 8)
		actor.addMomentum(res.Momentum)
	case OppositionResearch:
		target := a.Actor.Other()
		if g.shieldBlocks(target) {
			res.Blocked = true
			break
		}
		rival := gs.Agent(target)
		rival.addPolling(-uniform(g.rng, 0.5, 2.0))
		rival.addMomentum(-uniformInt(g.rng, 3, 8))
	}

	if a.Type.Regional() {
		res.Support = make(map[string]float64, len(a.Regions))
		for _, id := range a.Regions {
			r := gs.Region(id)
			if r == nil {
				continue
			}
			before := r.Support(a.Actor)
			r.AddSupport(a.Actor, uniform(g.rng, lo, hi)*RegionMultiplier(r, a.Type)*bonus)
			res.Support[id] = r.Support(a.Actor) - before
		}
	}
	return res
}
