package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amanp27/voice-assistant/internal/logging"
	"github.com/amanp27/voice-assistant/internal/store"
)

// Recorder maps runtime events onto store operations. It tracks the open
// conversation and running cost per session id; a second session_started for
// a live session id opens a new conversation row (reconnect).
type Recorder struct {
	store *store.Store
	bcast *Broadcaster
	log   *logging.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	conversationID int64
	cost           float64
}

// NewRecorder creates a recorder over the store. The broadcaster may be nil
// when no UI observer is attached.
func NewRecorder(s *store.Store, b *Broadcaster) *Recorder {
	return &Recorder{
		store:    s,
		bcast:    b,
		log:      logging.New("recorder"),
		sessions: make(map[string]*liveSession),
	}
}

// Handle applies one runtime event. Store failures propagate to the caller;
// broadcast failures never do.
func (r *Recorder) Handle(ctx context.Context, e *Envelope) error {
	switch e.Type {
	case EventSessionStarted:
		return r.sessionStarted(ctx, e)
	case EventSpeechCommitted:
		return r.speechCommitted(ctx, e)
	case EventToolInvoked:
		return r.toolInvoked(ctx, e)
	case EventCostUpdate:
		return r.costUpdate(e)
	case EventSessionEnded:
		return r.sessionEnded(ctx, e)
	default:
		r.log.Warn("unknown_event", map[string]any{"type": e.Type, "session": e.SessionID})
		return nil
	}
}

func (r *Recorder) sessionStarted(ctx context.Context, e *Envelope) error {
	id, err := r.store.CreateConversation(ctx, e.SessionID, e.ParticipantIdentity, e.ParticipantName)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions[e.SessionID] = &liveSession{conversationID: id}
	r.mu.Unlock()

	r.log.WithSession(e.SessionID).Info("session_started", map[string]any{
		"conversation_id": id,
		"participant":     e.ParticipantIdentity,
	})
	return nil
}

func (r *Recorder) speechCommitted(ctx context.Context, e *Envelope) error {
	ls, err := r.lookup(e.SessionID)
	if err != nil {
		return err
	}
	if err := r.store.AddMessage(ctx, ls.conversationID, e.Role, e.Text); err != nil {
		return err
	}
	if r.bcast != nil {
		r.bcast.Transcript(e.Role, e.Text)
	}
	return nil
}

func (r *Recorder) toolInvoked(ctx context.Context, e *Envelope) error {
	ls, err := r.lookup(e.SessionID)
	if err != nil {
		return err
	}
	success := true
	if e.Success != nil {
		success = *e.Success
	}
	return r.store.AddToolCall(ctx, ls.conversationID, store.ToolCall{
		ToolName:   e.ToolName,
		Parameters: e.Parameters,
		Result:     e.Result,
		Success:    success,
		Timestamp:  time.Now(),
	})
}

func (r *Recorder) costUpdate(e *Envelope) error {
	r.mu.Lock()
	if ls, ok := r.sessions[e.SessionID]; ok {
		ls.cost = e.Total
	}
	r.mu.Unlock()

	if r.bcast != nil {
		r.bcast.Cost(e.Total)
	}
	return nil
}

func (r *Recorder) sessionEnded(ctx context.Context, e *Envelope) error {
	r.mu.Lock()
	ls, ok := r.sessions[e.SessionID]
	delete(r.sessions, e.SessionID)
	r.mu.Unlock()

	if !ok {
		r.log.WithSession(e.SessionID).Warn("end_without_start", nil)
		return nil
	}

	if err := r.store.EndConversation(ctx, ls.conversationID, ls.cost); err != nil {
		return err
	}
	r.log.WithSession(e.SessionID).Info("session_ended", map[string]any{
		"conversation_id": ls.conversationID,
		"cost":            ls.cost,
	})
	return nil
}

func (r *Recorder) lookup(sessionID string) (*liveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no open conversation for session %s: %w", sessionID, store.ErrNotFound)
	}
	return ls, nil
}
