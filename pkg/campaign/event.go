package campaign

import "github.com/google/uuid"

// EventType classifies a news event.
type EventType string

const (
	EventScandal      EventType = "scandal"
	EventEconomicNews EventType = "economicNews"
	EventEndorsement  EventType = "endorsement"
	EventGaffe        EventType = "gaffe"
	EventCrisis       EventType = "crisis"
	EventViral        EventType = "viral"
)

var eventTypes = []EventType{EventScandal, EventEconomicNews, EventEndorsement, EventGaffe, EventCrisis, EventViral}

var eventTemplates = map[EventType][2]string{
	EventScandal:      {"Breaking: Campaign Scandal Emerges", "New allegations surface that could impact the campaign."},
	EventEconomicNews: {"Major Economic Report Released", "Economic indicators shift public opinion on key issues."},
	EventEndorsement:  {"High-Profile Endorsement", "A major figure announces their support for a candidate."},
	EventGaffe:        {"Candidate Makes Controversial Statement", "An off-script moment creates controversy."},
	EventCrisis:       {"National Crisis Unfolds", "A sudden crisis tests leadership credentials."},
	EventViral:        {"Campaign Moment Goes Viral", "A campaign moment captures the nation's attention."},
}

// Event engine tuning.
const (
	EventChance       = 0.4
	EventMagnitudeMax = 30
	EventPollingMin   = 20
	EventPollingMax   = 80
)

// Event is a news item shown in the feed. Affected is "" when the event
// touches nobody in particular.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Affected    Role      `json:"affected,omitempty"`
	Impact      int       `json:"impact"`
	Turn        int       `json:"turn"`
}

func newEvent(t EventType, title, desc string, affected Role, impact, turn int) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		Title:       title,
		Description: desc,
		Affected:    affected,
		Impact:      clampInt(impact, -50, 50),
		Turn:        turn,
	}
}

// rollEvent fires a random event with probability EventChance and applies it.
func (g *Game) rollEvent() {
	if g.rng.Float64() >= EventChance {
		return
	}
	gs := g.state
	typ := eventTypes[g.rng.Intn(len(eventTypes))]
	affected := Roles[g.rng.Intn(len(Roles))]
	mag := g.rng.Intn(2*EventMagnitudeMax+1) - EventMagnitudeMax
	tpl := eventTemplates[typ]

	a := gs.Agent(affected)
	a.Polling += float64(mag) * 0.1
	a.Momentum += mag / 5
	for _, r := range Roles {
		ag := gs.Agent(r)
		ag.Polling = clampFloat(ag.Polling, EventPollingMin, EventPollingMax)
		ag.Momentum = clampInt(ag.Momentum, MomentumMin, MomentumMax)
	}
	g.emit(newEvent(typ, tpl[0], tpl[1], affected, mag, gs.Turn))
}
