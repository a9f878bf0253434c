// Package catalog loads the region catalog a race is played over. Files use
// the CampaignData layout (metadata plus one entry per state) in JSON or YAML.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// ErrEmpty is returned for a catalog file with no states.
var ErrEmpty = errors.New("catalog has no states")

// Support derivation tuning.
const (
	marginNoise = 3.0
	minSupport  = 25.0
	maxSupport  = 75.0

	// Share of the all-states budget handed out as starting funds, and the
	// incumbent's part of it.
	fundsShare     = 0.20
	incumbentShare = 0.55
)

var marginWeights = [4]float64{0.4, 0.3, 0.2, 0.1}

// File is the on-disk catalog.
type File struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	States   []State  `json:"states" yaml:"states"`
}

type Metadata struct {
	TotalElectoralVotes   int     `json:"totalElectoralVotes" yaml:"totalElectoralVotes"`
	TotalBudgetAllStatesM float64 `json:"totalBudgetAllStatesM" yaml:"totalBudgetAllStatesM"`
	StateCount            int     `json:"stateCount" yaml:"stateCount"`
}

// State is one catalog entry.
type State struct {
	Name                string        `json:"name" yaml:"name"`
	Abbreviation        string        `json:"abbreviation" yaml:"abbreviation"`
	ElectoralVotes      int           `json:"electoralVotes" yaml:"electoralVotes"`
	Region              string        `json:"region" yaml:"region"`
	CompetitivenessTier int           `json:"competitivenessTier" yaml:"competitivenessTier"`
	Historical          Historical    `json:"historical" yaml:"historical"`
	ActionEffectiveness Effectiveness `json:"actionEffectiveness" yaml:"actionEffectiveness"`
	ROI                 ROI           `json:"roi" yaml:"roi"`
	Staffing            Staffing      `json:"staffing" yaml:"staffing"`
	Budget              Budget        `json:"budget" yaml:"budget"`
	WeeklyPacing        []Pacing      `json:"weeklyPacing" yaml:"weeklyPacing"`
}

type Historical struct {
	Winner2020 string  `json:"winner2020" yaml:"winner2020"`
	Winner2016 string  `json:"winner2016" yaml:"winner2016"`
	Winner2012 string  `json:"winner2012" yaml:"winner2012"`
	Winner2008 string  `json:"winner2008" yaml:"winner2008"`
	Margin2020 float64 `json:"margin2020" yaml:"margin2020"`
	Margin2016 float64 `json:"margin2016" yaml:"margin2016"`
	Margin2012 float64 `json:"margin2012" yaml:"margin2012"`
	Margin2008 float64 `json:"margin2008" yaml:"margin2008"`
	Trend      string  `json:"trend" yaml:"trend"`
	Turnout    float64 `json:"turnout2020" yaml:"turnout2020"`
}

// WeightedMargin blends the last four cycles, most recent first.
func (h Historical) WeightedMargin() float64 {
	return h.Margin2020*marginWeights[0] +
		h.Margin2016*marginWeights[1] +
		h.Margin2012*marginWeights[2] +
		h.Margin2008*marginWeights[3]
}

type Effectiveness struct {
	TownHall   int `json:"townHall" yaml:"townHall"`
	AdCampaign int `json:"adCampaign" yaml:"adCampaign"`
	Debate     int `json:"debate" yaml:"debate"`
	Rally      int `json:"rally" yaml:"rally"`
	Opposition int `json:"opposition" yaml:"opposition"`
	Grassroots int `json:"grassroots" yaml:"grassroots"`
	Fundraiser int `json:"fundraiser" yaml:"fundraiser"`
}

// Table converts the named scores into the engine's per-action table.
// Scores outside 0-3 are clamped.
func (e Effectiveness) Table() campaign.Effectiveness {
	var t campaign.Effectiveness
	set := func(a campaign.ActionType, v int) {
		t[a] = min(max(v, 0), 3)
	}
	set(campaign.Rally, e.Rally)
	set(campaign.AdCampaign, e.AdCampaign)
	set(campaign.Fundraiser, e.Fundraiser)
	set(campaign.TownHall, e.TownHall)
	set(campaign.DebatePrep, e.Debate)
	set(campaign.Grassroots, e.Grassroots)
	set(campaign.OppositionResearch, e.Opposition)
	return t
}

type ROI struct {
	SwingPotentialScore   float64 `json:"swingPotentialScore" yaml:"swingPotentialScore"`
	ROIRating             string  `json:"roiRating" yaml:"roiRating"`
	SpendEfficiencyRating string  `json:"spendEfficiencyRating" yaml:"spendEfficiencyRating"`
	CostPerEV             float64 `json:"costPerEV" yaml:"costPerEV"`
	TotalSpend2020M       float64 `json:"totalSpend2020M" yaml:"totalSpend2020M"`
	MediaMarketCostIndex  float64 `json:"mediaMarketCostIndex" yaml:"mediaMarketCostIndex"`
}

// roiRatings maps the catalog's rating words onto the numeric scale regions use.
var roiRatings = map[string]float64{
	"very high": 2.0,
	"high":      1.6,
	"medium":    1.2,
	"moderate":  1.2,
	"low":       0.8,
	"very low":  0.5,
}

// Score returns the numeric ROI. Unknown words score 1.
func (r ROI) Score() float64 {
	s := strings.ToLower(strings.TrimSpace(r.ROIRating))
	if v, ok := roiRatings[s]; ok {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return 1
}

type Staffing struct {
	TotalStaff                int `json:"totalStaff" yaml:"totalStaff"`
	StateLeadership           int `json:"stateLeadership" yaml:"stateLeadership"`
	FieldOrganizers           int `json:"fieldOrganizers" yaml:"fieldOrganizers"`
	CommunicationsStaff       int `json:"communicationsStaff" yaml:"communicationsStaff"`
	RegionalOffices           int `json:"regionalOffices" yaml:"regionalOffices"`
	ActiveVolunteersPeak      int `json:"activeVolunteersPeak" yaml:"activeVolunteersPeak"`
	VolunteerShiftsFinalMonth int `json:"volunteerShiftsFinalMonth" yaml:"volunteerShiftsFinalMonth"`
	RegisteredVoters          int `json:"registeredVoters" yaml:"registeredVoters"`
}

type Budget struct {
	TotalBudgetM           float64 `json:"totalBudgetM" yaml:"totalBudgetM"`
	StaffPayrollM          float64 `json:"staffPayrollM" yaml:"staffPayrollM"`
	TVAdvertisingM         float64 `json:"tvAdvertisingM" yaml:"tvAdvertisingM"`
	DigitalAdvertisingM    float64 `json:"digitalAdvertisingM" yaml:"digitalAdvertisingM"`
	GOTVOperationsM        float64 `json:"gotvOperationsM" yaml:"gotvOperationsM"`
	EarlyVoteInvestmentPct float64 `json:"earlyVoteInvestmentPct" yaml:"earlyVoteInvestmentPct"`
}

// Pacing is a weekly staffing and spend target.
type Pacing struct {
	Week       int     `json:"week" yaml:"week"`
	Staff      int     `json:"staff" yaml:"staff"`
	Volunteers int     `json:"volunteers" yaml:"volunteers"`
	BudgetK    float64 `json:"budgetK" yaml:"budgetK"`
}

// Catalog is a parsed catalog file.
type Catalog struct {
	file File
}

// Parse decodes data. YAML is used when format is "yaml" or "yml", JSON otherwise.
func Parse(data []byte, format string) (*Catalog, error) {
	var f File
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode catalog yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode catalog json: %w", err)
		}
	}
	if len(f.States) == 0 {
		return nil, ErrEmpty
	}
	for i, s := range f.States {
		if s.Abbreviation == "" || s.ElectoralVotes <= 0 {
			return nil, fmt.Errorf("catalog state %d (%q): missing abbreviation or electoral votes", i, s.Name)
		}
	}
	return &Catalog{file: f}, nil
}

// Load reads and parses the catalog at path, choosing the decoder by extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// LoadOrDefault loads path, or returns nil after logging a warning. A nil
// *Catalog serves the built-in region set.
func LoadOrDefault(path string) *Catalog {
	if path == "" {
		return nil
	}
	c, err := Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Region catalog unavailable, using built-in regions")
		return nil
	}
	log.Info().Str("path", path).Int("states", len(c.file.States)).Msg("Region catalog loaded")
	return c
}

// States returns the raw entries.
func (c *Catalog) States() []State {
	if c == nil {
		return nil
	}
	return c.file.States
}

// Metadata returns the file's metadata block.
func (c *Catalog) Metadata() Metadata {
	if c == nil {
		return Metadata{}
	}
	return c.file.Metadata
}

// Regions builds a fresh region set. Initial support is derived from the
// weighted historical margin plus up to three points of noise drawn from
// rng, centred on 50 and clamped to [25,75]. States the incumbent's party
// carried in 2020 lean primary. A nil catalog returns the built-in regions.
func (c *Catalog) Regions(rng campaign.Rand) []campaign.Region {
	if c == nil {
		return campaign.DefaultRegions()
	}
	out := make([]campaign.Region, 0, len(c.file.States))
	for _, s := range c.file.States {
		margin := s.Historical.WeightedMargin()
		if rng != nil {
			margin += (rng.Float64()*2 - 1) * marginNoise
		}
		half := margin / 2
		lead := clamp(50+half, minSupport, maxSupport)
		trail := clamp(50-half, minSupport, maxSupport)

		r := campaign.Region{
			ID:             s.Abbreviation,
			Name:           s.Name,
			ElectoralVotes: s.ElectoralVotes,
			Group:          s.Region,
			Tier:           min(max(s.CompetitivenessTier, 1), 4),
			SwingPotential: clamp(s.ROI.SwingPotentialScore, 0, 100),
			ROI:            s.ROI.Score(),
			CostIndex:      s.ROI.MediaMarketCostIndex,
			Effectiveness:  s.ActionEffectiveness.Table(),
		}
		if r.CostIndex <= 0 {
			r.CostIndex = 1
		}
		if incumbentLeaning(s.Historical.Winner2020) {
			r.SetSupport(lead, trail)
		} else {
			r.SetSupport(trail, lead)
		}
		out = append(out, r)
	}
	return out
}

// StartingFunds splits a fifth of the all-states budget 55/45 between the
// incumbent and the challenger. ok is false when the catalog has no budget.
func (c *Catalog) StartingFunds() (primary, opponent float64, ok bool) {
	if c == nil || c.file.Metadata.TotalBudgetAllStatesM <= 0 {
		return campaign.PrimaryStartingFunds, campaign.OpponentStartingFunds, false
	}
	total := math.Round(c.file.Metadata.TotalBudgetAllStatesM * 1_000_000 * fundsShare)
	primary = math.Round(total * incumbentShare)
	return primary, total - primary, true
}

// WeeklyTarget returns the pacing entry for a state and week, if any.
func (c *Catalog) WeeklyTarget(id string, week int) (Pacing, bool) {
	s, ok := c.state(id)
	if !ok {
		return Pacing{}, false
	}
	for _, p := range s.WeeklyPacing {
		if p.Week == week {
			return p, true
		}
	}
	return Pacing{}, false
}

// StaffingFor returns the staffing block for a state.
func (c *Catalog) StaffingFor(id string) (Staffing, bool) {
	s, ok := c.state(id)
	return s.Staffing, ok
}

// BudgetFor returns the budget block for a state.
func (c *Catalog) BudgetFor(id string) (Budget, bool) {
	s, ok := c.state(id)
	return s.Budget, ok
}

func (c *Catalog) state(id string) (State, bool) {
	if c == nil {
		return State{}, false
	}
	for _, s := range c.file.States {
		if strings.EqualFold(s.Abbreviation, id) || s.Name == id {
			return s, true
		}
	}
	return State{}, false
}

// Apply seeds a fresh state with this catalog's regions and, when the
// catalog carries a budget, its starting funds.
func (c *Catalog) Apply(gs *campaign.GameState, rng campaign.Rand) {
	gs.Regions = c.Regions(rng)
	if p, o, ok := c.StartingFunds(); ok {
		gs.Primary.Funds = p
		gs.Opponent.Funds = o
	}
}

func incumbentLeaning(winner string) bool {
	return strings.EqualFold(strings.TrimSpace(winner), "D")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
