package model

import "time"

// User represents a player who can own campaigns.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Provider    string    `json:"provider"    db:"provider"`
	ProviderID  string    `json:"provider_id" db:"provider_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// Game status values mirror the campaign phases.
const (
	StatusSetup   = "setup"
	StatusPlaying = "playing"
	StatusEnded   = "ended"
)

// Game is the listing record for a campaign: who owns it and how far along
// it is. The full ledger lives in snapshots.
type Game struct {
	ID            string     `json:"id"             db:"id"`
	Name          string     `json:"name"           db:"name"`
	OwnerID       string     `json:"owner_id"       db:"owner_id"`
	Status        string     `json:"status"         db:"status"`
	Difficulty    string     `json:"difficulty"     db:"difficulty"`
	Personality   string     `json:"personality"    db:"personality"`
	Turn          int        `json:"turn"           db:"turn"`
	MaxTurns      int        `json:"max_turns"      db:"max_turns"`
	Week          string     `json:"week"           db:"week"`
	PrimaryName   string     `json:"primary_name"   db:"primary_name"`
	OpponentName  string     `json:"opponent_name"  db:"opponent_name"`
	Winner        string     `json:"winner,omitempty" db:"winner"`
	PrimaryVotes  int        `json:"primary_votes"  db:"primary_votes"`
	OpponentVotes int        `json:"opponent_votes" db:"opponent_votes"`
	CreatedAt     time.Time  `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"     db:"updated_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// Snapshot is an encoded campaign ledger.
type Snapshot struct {
	GameID  string    `json:"game_id"  db:"game_id"`
	Version int       `json:"version"  db:"version"`
	Turn    int       `json:"turn"     db:"turn"`
	Data    []byte    `json:"-"        db:"data"`
	SavedAt time.Time `json:"saved_at" db:"saved_at"`
}

// MatchResult records one AI-vs-AI race.
type MatchResult struct {
	ID                 string    `json:"id"                  db:"id"`
	Seed               int64     `json:"seed"                db:"seed"`
	PrimaryDifficulty  string    `json:"primary_difficulty"  db:"primary_difficulty"`
	OpponentDifficulty string    `json:"opponent_difficulty" db:"opponent_difficulty"`
	Winner             string    `json:"winner"              db:"winner"`
	Outright           bool      `json:"outright"            db:"outright"`
	PrimaryVotes       int       `json:"primary_votes"       db:"primary_votes"`
	OpponentVotes      int       `json:"opponent_votes"      db:"opponent_votes"`
	Scandals           int       `json:"scandals"            db:"scandals"`
	DurationMs         int64     `json:"duration_ms"         db:"duration_ms"`
	CreatedAt          time.Time `json:"created_at"          db:"created_at"`
}
