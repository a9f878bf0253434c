// Package snapshot converts a campaign ledger to bytes and back. A snapshot
// is a versioned JSON envelope compressed with zstd; decoding checks it
// against an embedded JSON Schema before trusting it.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Version is the envelope format written by Encode.
const Version = 1

// ErrIncompatible is returned for snapshots that cannot be loaded: corrupt,
// from another format version, or failing schema validation.
var ErrIncompatible = errors.New("incompatible snapshot")

const schemaURL = "https://polforge.local/schemas/snapshot.schema.json"

//go:embed snapshot.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Meta is the save-list summary stored alongside the ledger.
type Meta struct {
	Week         string `json:"week"`
	PrimaryName  string `json:"primaryName"`
	OpponentName string `json:"opponentName"`
	Difficulty   string `json:"difficulty,omitempty"`
	Personality  string `json:"personality,omitempty"`
}

// MetaFor fills the summary fields from a ledger.
func MetaFor(gs *campaign.GameState) Meta {
	return Meta{
		Week:         gs.WeekLabel(),
		PrimaryName:  gs.Primary.Name,
		OpponentName: gs.Opponent.Name,
		Difficulty:   gs.Difficulty,
	}
}

// Envelope is the decoded form of a snapshot.
type Envelope struct {
	Version int                 `json:"version"`
	SavedAt time.Time           `json:"savedAt"`
	Meta    Meta                `json:"meta"`
	State   *campaign.GameState `json:"state"`
}

// Encode serialises gs with meta.
func Encode(gs *campaign.GameState, meta Meta) ([]byte, error) {
	raw, err := json.Marshal(Envelope{Version: Version, SavedAt: time.Now().UTC(), Meta: meta, State: gs})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores an envelope. Every failure wraps ErrIncompatible.
func Decode(data []byte) (*Envelope, error) {
	raw, err := decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrIncompatible, env.Version, Version)
	}
	return &env, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
