package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/amanp27/voice-assistant/internal/logging"
)

// Publisher sends one payload to the UI data channel.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

const publishTimeout = 2 * time.Second

// Broadcaster publishes transcript and cost payloads to UI observers.
// Sends are detached: a failed publish is logged and dropped, never retried,
// and never interrupts or blocks the conversation flow.
type Broadcaster struct {
	pub Publisher
	log *logging.Logger
	wg  sync.WaitGroup
}

// NewBroadcaster creates a broadcaster over the publisher.
func NewBroadcaster(pub Publisher) *Broadcaster {
	return &Broadcaster{pub: pub, log: logging.New("broadcast")}
}

// Transcript publishes a committed turn.
func (b *Broadcaster) Transcript(speaker, text string) {
	b.send(TranscriptPayload{Type: "transcript", Speaker: speaker, Text: text})
}

// Cost publishes the running cost estimate.
func (b *Broadcaster) Cost(total float64) {
	b.send(CostPayload{Type: "cost", Total: total})
}

func (b *Broadcaster) send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error("marshal_payload", err, nil)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := b.pub.Publish(ctx, data); err != nil {
			b.log.Error("publish_failed", err, map[string]any{"bytes": len(data)})
		}
	}()
}

// Flush waits for in-flight sends to settle. Used on shutdown and in tests.
func (b *Broadcaster) Flush() {
	b.wg.Wait()
}
