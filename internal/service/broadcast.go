package service

// Event types sent to subscribers of a game.
const (
	EventGameCreated      = "game_created"
	EventGameStarted      = "game_started"
	EventActionResolved   = "action_resolved"
	EventNews             = "news"
	EventTurnChanged      = "turn_changed"
	EventOpponentThinking = "opponent_thinking"
	EventOpponentReport   = "opponent_report"
	EventShadowUpdate     = "shadow_update"
	EventGameEnded        = "game_ended"
)

// Broadcaster fans game events out to the players watching a race. The
// WebSocket hub implements it; data is marshalled as the event payload.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster drops every event. NewGameService uses it when no hub is
// wired.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(string, string, any) {}
