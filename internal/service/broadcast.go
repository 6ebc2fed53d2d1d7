package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/observability"
)

const eventBufferSize = 16

// EventHub is a process-wide registry of open streaming connections for one
// stream (chat or notifications). Delivery is at-most-once and best-effort:
// there is no backlog, no replay, and a subscriber that cannot keep up is
// dropped from the registry rather than blocking the broadcaster.
type EventHub struct {
	stream  string
	mu      sync.RWMutex
	clients map[chan dto.StreamEvent]string
	logger  zerolog.Logger
}

// NewEventHub constructs a hub for the named stream.
func NewEventHub(stream string, logger zerolog.Logger) *EventHub {
	return &EventHub{
		stream:  stream,
		clients: make(map[chan dto.StreamEvent]string),
		logger:  logger.With().Str("component", "event_hub").Str("stream", stream).Logger(),
	}
}

// Stream returns the hub's stream name.
func (h *EventHub) Stream() string {
	return h.stream
}

// Subscribe registers a new client keyed by an optional identity (the user ID
// for targeted delivery, empty for receive-everything). The returned cleanup
// is idempotent and closes the channel.
func (h *EventHub) Subscribe(key string) (<-chan dto.StreamEvent, func()) {
	channel := make(chan dto.StreamEvent, eventBufferSize)

	h.mu.Lock()
	h.clients[channel] = key
	h.mu.Unlock()

	observability.StreamClientsActive().WithLabelValues(h.stream).Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.remove(channel)
			observability.StreamClientsActive().WithLabelValues(h.stream).Dec()
		})
	}

	return channel, cleanup
}

// Broadcast delivers the event to every registered client. A client whose
// buffer is full is treated as a failed write: it is silently removed from
// the registry and the broadcast continues. Zero clients is a no-op.
func (h *EventHub) Broadcast(event dto.StreamEvent) {
	h.send(event, func(string) bool { return true })
}

// BroadcastTo delivers the event to clients registered under the given key.
func (h *EventHub) BroadcastTo(key string, event dto.StreamEvent) {
	h.send(event, func(clientKey string) bool { return clientKey == key })
}

// ClientCount reports the number of registered clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *EventHub) send(event dto.StreamEvent, match func(key string) bool) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	var stale []chan dto.StreamEvent

	h.mu.RLock()
	for channel, key := range h.clients {
		if !match(key) {
			continue
		}
		select {
		case channel <- event:
		default:
			stale = append(stale, channel)
		}
	}
	h.mu.RUnlock()

	for _, channel := range stale {
		h.remove(channel)
		h.logger.Debug().Str("event_type", event.Type).Msg("dropping slow stream client")
	}

	observability.BroadcastEvents().WithLabelValues(h.stream, event.Type).Inc()
}

func (h *EventHub) remove(channel chan dto.StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[channel]; ok {
		delete(h.clients, channel)
		close(channel)
	}
}

// bridgeEnvelope wraps an event with its origin node so bridges can skip
// events they published themselves.
type bridgeEnvelope struct {
	Source string          `json:"source"`
	Key    string          `json:"key,omitempty"`
	Event  dto.StreamEvent `json:"event"`
	SentAt time.Time       `json:"sent_at"`
}

// EventBridge republishes hub events across nodes via Redis pub/sub and/or
// NATS. Both backends are optional; with neither configured the bridge is a
// no-op and the hub stays purely in-process.
type EventBridge struct {
	hub         *EventHub
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	natsQueue   string
	nodeID      string
	logger      zerolog.Logger
}

// NewEventBridge wires a hub to the configured brokers. channelBase follows
// the "<app>:<env>" convention; stream names are appended per hub.
func NewEventBridge(hub *EventHub, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, nodeID string, logger zerolog.Logger) *EventBridge {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":" + hub.Stream()
		subject = strings.ReplaceAll(channelBase, ":", ".") + "." + hub.Stream()
	}

	return &EventBridge{
		hub:         hub,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		natsQueue:   "seka-" + hub.Stream(),
		nodeID:      nodeID,
		logger:      logger.With().Str("component", "event_bridge").Str("stream", hub.Stream()).Logger(),
	}
}

// Start launches the consume loops for the configured brokers.
func (b *EventBridge) Start(ctx context.Context) {
	if b.redis != nil && b.redisStream != "" {
		go b.consumeRedis(ctx)
	}
	if b.nats != nil && b.natsSubject != "" {
		go b.consumeNATS(ctx)
	}
}

// Publish forwards a locally broadcast event to the brokers. Errors are
// returned for logging by the caller; local delivery already happened.
func (b *EventBridge) Publish(ctx context.Context, key string, event dto.StreamEvent) error {
	if (b.redis == nil || b.redisStream == "") && (b.nats == nil || b.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(bridgeEnvelope{
		Source: b.nodeID,
		Key:    key,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if b.redis != nil && b.redisStream != "" {
		if err := b.redis.Publish(ctx, b.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (b *EventBridge) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error().Err(err).Msg("redis bridge subscription closed")
			return
		}
		b.handleEnvelope([]byte(msg.Payload))
	}
}

func (b *EventBridge) consumeNATS(ctx context.Context) {
	sub, err := b.nats.QueueSubscribe(b.natsSubject, b.natsQueue, func(msg *nats.Msg) {
		b.handleEnvelope(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats bridge subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain nats bridge subscription")
		}
	}()
}

func (b *EventBridge) handleEnvelope(payload []byte) {
	var envelope bridgeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		b.logger.Warn().Err(err).Msg("invalid bridge envelope")
		return
	}

	if envelope.Source == b.nodeID {
		return
	}

	if envelope.Key != "" {
		b.hub.BroadcastTo(envelope.Key, envelope.Event)
		return
	}
	b.hub.Broadcast(envelope.Event)
}
