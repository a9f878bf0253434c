package campaign

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Zone buckets a shadow allocation by how much risk it carries.
type Zone string

const (
	ZoneTransparent Zone = "transparent"
	ZoneAggressive  Zone = "aggressive"
	ZoneBlackOps    Zone = "blackOps"
)

// Shadow budget limits and tuning.
const (
	MaxShadowAllocation    = 30
	TransparentCeiling     = 5
	AggressiveCeiling      = 15
	CleanTurnsForIntegrity = 3
	ScandalFundsDrain      = 0.05
	ShellSetupCost         = 2_000_000
	ShieldBackfire         = -4
)

// ZoneFor classifies an allocation percentage.
func ZoneFor(pct float64) Zone {
	switch {
	case pct <= TransparentCeiling:
		return ZoneTransparent
	case pct <= AggressiveCeiling:
		return ZoneAggressive
	}
	return ZoneBlackOps
}

// Severity grades a scandal.
type Severity string

const (
	SeverityMinor          Severity = "minor"
	SeverityMajor          Severity = "major"
	SeverityCampaignEnding Severity = "campaignEnding"
)

// SeverityFor grades a scandal by the allocation that triggered it.
func SeverityFor(pct float64) Severity {
	switch {
	case pct >= 25:
		return SeverityCampaignEnding
	case pct >= 18:
		return SeverityMajor
	}
	return SeverityMinor
}

// PollingPenalty is the national polling hit for the severity.
func (s Severity) PollingPenalty() int {
	switch s {
	case SeverityCampaignEnding:
		return -30
	case SeverityMajor:
		return -15
	}
	return -5
}

// FundingFreeze is how many turns the scandal drains funds.
func (s Severity) FundingFreeze() int {
	switch s {
	case SeverityCampaignEnding:
		return 4
	case SeverityMajor:
		return 2
	}
	return 1
}

// CovertOp enumerates off-book operations.
type CovertOp int

const (
	DataTheft CovertOp = iota
	Sabotage
	OppositionDirt
	VoterSuppression
	MediaManipulation

	numCovertOps
)

type covertSpec struct {
	name          string
	cost          float64
	minAllocation float64
	baseRisk      float64
}

var covertSpecs = [numCovertOps]covertSpec{
	DataTheft:         {"dataTheft", 5_000_000, 15, 0.25},
	Sabotage:          {"sabotage", 3_000_000, 10, 0.18},
	OppositionDirt:    {"oppositionDirt", 4_000_000, 12, 0.15},
	VoterSuppression:  {"voterSuppression", 6_000_000, 20, 0.35},
	MediaManipulation: {"mediaManipulation", 3_500_000, 8, 0.12},
}

// AllCovertOps lists every operation.
func AllCovertOps() []CovertOp {
	return []CovertOp{DataTheft, Sabotage, OppositionDirt, VoterSuppression, MediaManipulation}
}

func (op CovertOp) Valid() bool { return op >= 0 && op < numCovertOps }

func (op CovertOp) String() string {
	if !op.Valid() {
		return fmt.Sprintf("CovertOp(%d)", int(op))
	}
	return covertSpecs[op].name
}

// Cost is the base price before any shell company markup.
func (op CovertOp) Cost() float64 { return covertSpecs[op].cost }

// MinAllocation is the shadow allocation needed to run the operation.
func (op CovertOp) MinAllocation() float64 { return covertSpecs[op].minAllocation }

// BaseRisk is the operation's advertised exposure risk.
func (op CovertOp) BaseRisk() float64 { return covertSpecs[op].baseRisk }

func (op CovertOp) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("invalid covert op %d", int(op))
	}
	return []byte(op.String()), nil
}

func (op *CovertOp) UnmarshalText(b []byte) error {
	parsed, err := ParseCovertOp(string(b))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// ParseCovertOp looks up an operation by wire name.
func ParseCovertOp(s string) (CovertOp, error) {
	for i, spec := range covertSpecs {
		if spec.name == s {
			return CovertOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown covert op %q", s)
}

// Scandal is an exposed shadow operation.
type Scandal struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Severity      Severity `json:"severity"`
	Turn          int      `json:"turn"`
	Operation     string   `json:"operation"`
	PollingImpact int      `json:"pollingImpact"`
	FundingFreeze int      `json:"fundingFreeze"`
	Laundered     bool     `json:"laundered"`
	DeniedTurn    int      `json:"deniedTurn,omitempty"`
}

// Freezing reports whether the scandal still drains funds at turn.
func (s Scandal) Freezing(turn int) bool {
	return turn-s.Turn < s.FundingFreeze
}

// IntegrityBonus rewards sustained clean play.
type IntegrityBonus struct {
	Active                bool    `json:"active"`
	FundraisingMultiplier float64 `json:"fundraisingMultiplier"`
	Shield                bool    `json:"shield"`
	Reputation            float64 `json:"reputation"`
}

func (ib *IntegrityBonus) grant() {
	ib.Active = true
	ib.FundraisingMultiplier = 1.2
	ib.Shield = true
	ib.Reputation = math.Min(100, ib.Reputation+10)
}

func (ib *IntegrityBonus) strip() {
	ib.Active = false
	ib.FundraisingMultiplier = 1.0
	ib.Shield = false
}

// ShellCompany launders shadow spending at a markup.
type ShellCompany struct {
	Active             bool    `json:"active"`
	CostMultiplier     float64 `json:"costMultiplier"`
	DetectionReduction float64 `json:"detectionReduction"`
	Layers             int     `json:"layers"`
}

// SetupCost is the price of the current layer count.
func (sc ShellCompany) SetupCost() float64 {
	return ShellSetupCost * float64(max(1, sc.Layers))
}

func (sc *ShellCompany) addLayer() {
	sc.Layers++
	sc.DetectionReduction = math.Min(0.8, sc.DetectionReduction+0.15)
	sc.CostMultiplier += 0.3
}

// ShadowState tracks one agent's off-book activity.
type ShadowState struct {
	Allocation   float64        `json:"allocation"`
	CleanTurns   int            `json:"cleanTurns"`
	Scandals     []Scandal      `json:"scandals"`
	Leverage     []string       `json:"leverage"`
	StolenData   bool           `json:"stolenData"`
	Caught       bool           `json:"caught"`
	CounterIntel float64        `json:"counterIntel"`
	Sabotages    []string       `json:"sabotages"`
	TotalSpent   float64        `json:"totalSpent"`
	LastOp       string         `json:"lastOp,omitempty"`
	Integrity    IntegrityBonus `json:"integrity"`
	Shell        ShellCompany   `json:"shell"`
}

// NewShadowState returns a clean slate.
func NewShadowState() ShadowState {
	return ShadowState{
		CounterIntel: 1.0,
		Integrity:    IntegrityBonus{FundraisingMultiplier: 1.0, Reputation: 50},
		Shell:        ShellCompany{CostMultiplier: 2.0, DetectionReduction: 0.5, Layers: 1},
	}
}

// Zone returns the current allocation's zone.
func (s *ShadowState) Zone() Zone { return ZoneFor(s.Allocation) }

// FindScandal returns the active scandal with the given ID, or nil.
func (s *ShadowState) FindScandal(id string) *Scandal {
	for i := range s.Scandals {
		if s.Scandals[i].ID == id {
			return &s.Scandals[i]
		}
	}
	return nil
}

// OperationCost is what op would cost with the current shell setup.
func (s *ShadowState) OperationCost(op CovertOp) float64 {
	if s.Shell.Active {
		return op.Cost() * s.Shell.CostMultiplier
	}
	return op.Cost()
}

func (s ShadowState) clone() ShadowState {
	s.Scandals = append([]Scandal(nil), s.Scandals...)
	s.Leverage = append([]string(nil), s.Leverage...)
	s.Sabotages = append([]string(nil), s.Sabotages...)
	return s
}

// DetectionProbability is the per-turn chance an allocation is exposed:
// allocation/100 × rival counter-intel × (1 − shell reduction).
func DetectionProbability(allocation, counterIntel float64, shell ShellCompany) float64 {
	reduction := 0.0
	if shell.Active {
		reduction = shell.DetectionReduction
	}
	return clampFloat(allocation/100*counterIntel*(1-reduction), 0, 1)
}

// DenialProbability is the chance a denial succeeds at the given reputation.
func DenialProbability(reputation float64) float64 {
	return 0.30 + reputation/100*0.4
}

// processShadowTurn runs the end-of-turn shadow update for role.
func (g *Game) processShadowTurn(role Role) {
	gs := g.state
	st := gs.Shadow(role)
	agent := gs.Agent(role)

	if st.Allocation <= TransparentCeiling {
		st.CleanTurns++
		if st.CleanTurns >= CleanTurnsForIntegrity && !st.Integrity.Active {
			st.Integrity.grant()
			g.emit(newEvent(EventEndorsement, "Campaign Praised for Transparency",
				fmt.Sprintf("%s's campaign wins praise for clean operations. Major donors show increased confidence.", agent.Name),
				role, 5, gs.Turn))
		}
	} else {
		st.CleanTurns = 0
		if st.Zone() == ZoneBlackOps {
			st.Integrity.strip()
		}
	}

	if st.Allocation > 0 {
		p := DetectionProbability(st.Allocation, gs.Shadow(role.Other()).CounterIntel, st.Shell)
		if g.rng.Float64() < p {
			g.exposeScandal(role)
		}
	}

	for _, s := range st.Scandals {
		if s.Freezing(gs.Turn) {
			agent.Funds -= agent.Funds * ScandalFundsDrain
		}
	}

	st.Sabotages = nil
}

func (g *Game) exposeScandal(role Role) {
	gs := g.state
	st := gs.Shadow(role)
	agent := gs.Agent(role)
	sev := SeverityFor(st.Allocation)
	laundered := st.Shell.Active
	title, desc := scandalCopy(sev, laundered, agent.Name)
	op := st.LastOp
	if op == "" {
		op = "discretionaryFunds"
	}
	s := Scandal{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   desc,
		Severity:      sev,
		Turn:          gs.Turn,
		Operation:     op,
		PollingImpact: sev.PollingPenalty(),
		FundingFreeze: sev.FundingFreeze(),
		Laundered:     laundered,
	}
	st.Scandals = append(st.Scandals, s)
	st.Caught = true

	impact := float64(s.PollingImpact)
	agent.Polling = clampFloat(agent.Polling+impact, 15, 85)
	for i := range gs.Regions {
		gs.Regions[i].AddSupport(role, impact*0.8)
	}
	st.Integrity.Reputation = clampFloat(st.Integrity.Reputation-2*math.Abs(impact), 0, 100)
	if st.Integrity.Reputation < 30 {
		st.Integrity.strip()
	}
	g.emit(newEvent(EventScandal, s.Title, s.Description, role, s.PollingImpact, gs.Turn))
}

func scandalCopy(sev Severity, laundered bool, name string) (string, string) {
	switch {
	case sev == SeverityCampaignEnding && laundered:
		return "BREAKING: Federal Indictments in Campaign Finance Scheme",
			fmt.Sprintf("Prosecutors announce indictments against %s campaign officials for money laundering and wire fraud.", name)
	case sev == SeverityCampaignEnding:
		return "Massive Espionage Operation Uncovered",
			fmt.Sprintf("Whistleblower reveals %s campaign paid hackers to infiltrate opponent systems.", name)
	case sev == SeverityMajor && laundered:
		return "Money Laundering Allegations Surface",
			fmt.Sprintf("Investigators trace shell companies linked to %s's campaign.", name)
	case sev == SeverityMajor:
		return "Illegal Opposition Research Exposed",
			fmt.Sprintf("%s campaign caught funding an illegal surveillance operation. Multiple staffers resign.", name)
	}
	return "Campaign Finance Questions Raised",
		fmt.Sprintf("Watchdog groups question %s's use of discretionary funds.", name)
}

var dirtTemplates = []string{
	"Leaked Audio: Candidate Insults Key Voter Group",
	"Financial Records Show Questionable Donations",
	"Former Staffers Allege Hostile Work Environment",
	"Tax Returns Reveal Offshore Accounts",
	"Past Business Dealings Under Scrutiny",
}

// shieldBlocks reports whether target's integrity shield stops a smear.
// A blocked smear backfires on the attacker.
func (g *Game) shieldBlocks(target Role) bool {
	gs := g.state
	if !gs.Shadow(target).Integrity.Shield {
		return false
	}
	attacker := target.Other()
	gs.Agent(attacker).addMomentum(ShieldBackfire)
	g.emit(newEvent(EventGaffe, "Desperate Attacks Backfire",
		fmt.Sprintf("Voters reject %s's smear campaign against %s. The attack is seen as desperate.",
			gs.Agent(attacker).Name, gs.Agent(target).Name),
		attacker, ShieldBackfire, gs.Turn))
	return true
}

// OperationResult reports the outcome of a covert operation.
type OperationResult struct {
	Op      CovertOp `json:"op"`
	Cost    float64  `json:"cost"`
	Blocked bool     `json:"blocked,omitempty"`
	Detail  string   `json:"detail,omitempty"`
}

func (g *Game) runCovertOp(role Role, op CovertOp) (OperationResult, error) {
	gs := g.state
	st := gs.Shadow(role)
	if st.Allocation < op.MinAllocation() {
		return OperationResult{}, ErrAllocationTooLow
	}
	cost := st.OperationCost(op)
	agent := gs.Agent(role)
	if agent.Funds < cost {
		return OperationResult{}, ErrInsufficientFunds
	}
	agent.spend(cost)
	st.TotalSpent += cost
	st.LastOp = op.String()

	target := role.Other()
	rival := gs.Agent(target)
	res := OperationResult{Op: op, Cost: cost}
	switch op {
	case DataTheft:
		st.StolenData = true
		res.Detail = "Opponent campaign data acquired"
	case Sabotage:
		st.Sabotages = append(st.Sabotages, fmt.Sprintf("Disrupted %s field operations", rival.Name))
		rival.addMomentum(-10)
		res.Detail = "Opponent momentum disrupted"
	case OppositionDirt:
		if g.shieldBlocks(target) {
			res.Blocked = true
			break
		}
		dirt := dirtTemplates[g.rng.Intn(len(dirtTemplates))]
		st.Leverage = append(st.Leverage, dirt)
		g.emit(newEvent(EventScandal, dirt,
			fmt.Sprintf("Damaging revelations about %s surface in the press.", rival.Name),
			target, -8, gs.Turn))
		rival.addPolling(-float64(uniformInt(g.rng, 3, 7)))
		res.Detail = dirt
	case VoterSuppression:
		hit := 0
		for i := range gs.Regions {
			r := &gs.Regions[i]
			if r.Support(target) > 55 {
				r.AddSupport(target, -uniform(g.rng, 2, 5))
				hit++
			}
		}
		res.Detail = fmt.Sprintf("Turnout suppressed in %d regions", hit)
	case MediaManipulation:
		if g.shieldBlocks(target) {
			res.Blocked = true
			break
		}
		g.emit(newEvent(EventGaffe, "Controversial Comments Surface",
			fmt.Sprintf("%s caught on a hot mic making controversial statements.", rival.Name),
			target, -6, gs.Turn))
		rival.addMomentum(-5)
		res.Detail = "Negative stories planted"
	}
	return res, nil
}

func (g *Game) attemptDenial(role Role, scandalID string) (bool, error) {
	gs := g.state
	st := gs.Shadow(role)
	s := st.FindScandal(scandalID)
	if s == nil {
		return false, ErrScandalNotFound
	}
	if s.DeniedTurn == gs.Turn {
		return false, ErrAlreadyDenied
	}
	name := gs.Agent(role).Name
	if g.rng.Float64() < DenialProbability(st.Integrity.Reputation) {
		kept := st.Scandals[:0]
		for _, other := range st.Scandals {
			if other.ID != scandalID {
				kept = append(kept, other)
			}
		}
		st.Scandals = kept
		g.emit(newEvent(EventViral, "Campaign Successfully Defends Against Allegations",
			fmt.Sprintf("%s provides evidence clearing the campaign of wrongdoing.", name), role, 3, gs.Turn))
		return true, nil
	}
	s.DeniedTurn = gs.Turn
	g.emit(newEvent(EventScandal, "Denial Rings Hollow",
		fmt.Sprintf("%s's attempts to deny the allegations fall flat.", name), role, -5, gs.Turn))
	return false, nil
}

// establishShell activates the shell company, or adds a layer when one is
// already running. It returns the amount charged.
func (g *Game) establishShell(role Role) (float64, error) {
	gs := g.state
	st := gs.Shadow(role)
	next := st.Shell
	if next.Active {
		next.addLayer()
	} else {
		next.Active = true
	}
	cost := next.SetupCost()
	agent := gs.Agent(role)
	if agent.Funds < cost {
		return 0, ErrInsufficientFunds
	}
	agent.spend(cost)
	st.TotalSpent += cost
	st.Shell = next
	return cost, nil
}
