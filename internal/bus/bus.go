// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bus provides the typed event channels connecting producers of
// user intents to the orchestration pipelines.
package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// Topic names. Each topic has exactly one long-lived consumer: the
// controller pipeline subscribed for the controller's lifetime.
const (
	TopicChat   = "chat.request"
	TopicUpload = "upload.request"
	TopicHealth = "health.check"
)

// =============================================================================
// EVENT PAYLOADS
// =============================================================================

// ChatRequest asks the chat pipeline to send one message. Ephemeral; exists
// only while transiting the bus.
type ChatRequest struct {
	Message string `json:"message"`
	UseRAG  bool   `json:"use_rag"`
}

// UploadRequest asks the upload pipeline to upload one local file. The file
// is referenced by path; the pipeline opens it when the event is accepted.
type UploadRequest struct {
	Path    string `json:"path"`
	Subject string `json:"subject,omitempty"`
	Grade   string `json:"grade,omitempty"`
	Topic   string `json:"topic,omitempty"`
}

// =============================================================================
// BUS
// =============================================================================

// Bus owns the three event channels. It is constructed once and passed by
// reference to whatever owns the UI lifecycle; there are no package-level
// singletons.
//
// Chat and upload topics are hot: only events published while a pipeline is
// subscribed are seen. The health topic retains its most recent trigger and
// replays it to a late subscriber, so a trigger can never be lost across
// the subscribe boundary.
type Bus struct {
	pubSub *gochannel.GoChannel
	log    *zap.Logger

	mu             sync.Mutex
	healthRetained bool
}

// New creates a Bus. A nil logger disables logging.
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewStdLogger(false, false),
		),
		log: log.Named("bus"),
	}
}

// Close shuts the bus down. All subscriber channels are closed; publishing
// after Close is an error.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// =============================================================================
// PUBLISH
// =============================================================================

// PublishChat pushes a chat request onto the chat channel.
func (b *Bus) PublishChat(req ChatRequest) error {
	return b.publishJSON(TopicChat, req)
}

// PublishUpload pushes an upload request onto the upload channel.
func (b *Bus) PublishUpload(req UploadRequest) error {
	return b.publishJSON(TopicUpload, req)
}

// PublishHealth pushes a re-check-now trigger onto the health channel.
// The trigger carries no payload.
func (b *Bus) PublishHealth() error {
	b.mu.Lock()
	b.healthRetained = true
	b.mu.Unlock()

	return b.pubSub.Publish(TopicHealth, message.NewMessage(watermill.NewUUID(), nil))
}

func (b *Bus) publishJSON(topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), raw))
}

// =============================================================================
// SUBSCRIBE
// =============================================================================

// SubscribeChat subscribes the single chat pipeline. The returned channel
// closes when ctx is cancelled or the bus is closed.
func (b *Bus) SubscribeChat(ctx context.Context) (<-chan ChatRequest, error) {
	return subscribeJSON[ChatRequest](ctx, b, TopicChat)
}

// SubscribeUpload subscribes the single upload pipeline.
func (b *Bus) SubscribeUpload(ctx context.Context) (<-chan UploadRequest, error) {
	return subscribeJSON[UploadRequest](ctx, b, TopicUpload)
}

// SubscribeHealth subscribes the single health pipeline. If a trigger was
// published before subscription, one trigger is delivered immediately
// (replay-latest-1).
func (b *Bus) SubscribeHealth(ctx context.Context) (<-chan struct{}, error) {
	msgs, err := b.pubSub.Subscribe(ctx, TopicHealth)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	replay := b.healthRetained
	b.mu.Unlock()

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)

		if replay {
			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}

		for msg := range msgs {
			msg.Ack()
			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// subscribeJSON adapts a raw watermill subscription into a typed channel.
// Malformed payloads are acked and skipped; they never stall the topic.
func subscribeJSON[T any](ctx context.Context, b *Bus, topic string) (<-chan T, error) {
	msgs, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan T, 1)
	go func() {
		defer close(out)
		for msg := range msgs {
			var event T
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.log.Warn("dropping malformed event",
					zap.String("topic", topic),
					zap.Error(err))
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
