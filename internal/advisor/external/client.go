// Package external asks an optional third-party service for campaign advice.
// Its recommendations are shown next to the built-in advisor's but never
// count toward the action budget.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/freeeve/polforge/api/internal/config"
	"github.com/freeeve/polforge/api/pkg/advisor"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

const (
	defaultTimeout = 5 * time.Second
	maxAdvice      = 5
)

// Client calls the advisory endpoint.
type Client struct {
	http *http.Client
	url  string
}

// New builds a client from config. When token settings are present requests
// carry a client-credentials bearer token.
func New(ctx context.Context, cfg config.External) *Client {
	hc := &http.Client{Timeout: defaultTimeout}
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		hc = cc.Client(ctx)
		hc.Timeout = defaultTimeout
	}
	return NewWithHTTP(hc, cfg.AdvisorURL)
}

// NewWithHTTP wraps an existing http.Client.
func NewWithHTTP(hc *http.Client, url string) *Client {
	return &Client{http: hc, url: url}
}

// regionBrief is the per-region context sent upstream.
type regionBrief struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ElectoralVotes int     `json:"electoralVotes"`
	Margin         float64 `json:"margin"`
	Battleground   bool    `json:"battleground"`
}

type request struct {
	Role           campaign.Role `json:"role"`
	Turn           int           `json:"turn"`
	MaxTurns       int           `json:"maxTurns"`
	Funds          float64       `json:"funds"`
	Momentum       int           `json:"momentum"`
	Polling        float64       `json:"polling"`
	ElectoralVotes int           `json:"electoralVotes"`
	RivalVotes     int           `json:"rivalVotes"`
	Regions        []regionBrief `json:"regions"`
}

type response struct {
	Recommendations []advisor.Recommendation `json:"recommendations"`
}

// Recommendations posts a summary of the role's position and returns the
// service's advice, tagged with advisor.SourceExternal.
func (c *Client) Recommendations(ctx context.Context, gs *campaign.GameState, role campaign.Role) ([]advisor.Recommendation, error) {
	body, err := json.Marshal(brief(gs, role))
	if err != nil {
		return nil, fmt.Errorf("marshal advice request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build advice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("advice request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("advice status %d: %s", resp.StatusCode, msg)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode advice: %w", err)
	}
	recs := out.Recommendations
	if len(recs) > maxAdvice {
		recs = recs[:maxAdvice]
	}
	for i := range recs {
		recs[i].Source = advisor.SourceExternal
	}
	return recs, nil
}

func brief(gs *campaign.GameState, role campaign.Role) request {
	agent := gs.Agent(role)
	req := request{
		Role:           role,
		Turn:           gs.Turn,
		MaxTurns:       gs.MaxTurns,
		Funds:          agent.Funds,
		Momentum:       agent.Momentum,
		Polling:        agent.Polling,
		ElectoralVotes: gs.ElectoralVotes(role),
		RivalVotes:     gs.ElectoralVotes(role.Other()),
		Regions:        make([]regionBrief, 0, len(gs.Regions)),
	}
	for i := range gs.Regions {
		r := &gs.Regions[i]
		req.Regions = append(req.Regions, regionBrief{
			ID:             r.ID,
			Name:           r.Name,
			ElectoralVotes: r.ElectoralVotes,
			Margin:         r.Margin(role),
			Battleground:   r.IsBattleground(),
		})
	}
	return req
}
