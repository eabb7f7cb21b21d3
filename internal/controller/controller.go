// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/studymate-tui/internal/api"
	"github.com/jeranaias/studymate-tui/internal/bus"
	"github.com/jeranaias/studymate-tui/internal/model"
	"github.com/jeranaias/studymate-tui/internal/store"
)

// User-facing failure text. The chat apology lives in the api package
// because the client attaches it to terminal chat failures itself.
const (
	// UploadFailedMessage is shown when an upload cannot be completed.
	UploadFailedMessage = "파일 업로드 중 오류가 발생했어요"

	// HealthWarningMessage is shown while the backend is unreachable.
	HealthWarningMessage = "⚠️ 서버와 연결할 수 없어요. 백엔드 서버가 실행 중인지 확인해주세요!"
)

// Producer validation errors.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a chat request is already in flight")
	ErrEmptyPath    = errors.New("upload path is empty")
)

// =============================================================================
// CHANNEL STATE
// =============================================================================

// channelState tracks the single in-flight request of one event channel.
// Cancellation is cooperative: superseding a request cancels its context,
// and the superseded completion is discarded at commit time regardless of
// whether the transport noticed the cancellation.
type channelState struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// accept supersedes any in-flight request on this channel and registers a
// new one. The returned context is cancelled when a later request is
// accepted or the controller shuts down.
func (cs *channelState) accept(parent context.Context) (context.Context, uint64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.cancel != nil {
		cs.cancel()
	}
	cs.gen++
	ctx, cancel := context.WithCancel(parent)
	cs.cancel = cancel
	return ctx, cs.gen
}

// commit runs fn only if gen is still the latest accepted request on this
// channel. fn performs both the settle and finalize writes under the channel
// lock, so a supersession can never interleave between them. A stale
// completion runs nothing and reports false.
func (cs *channelState) commit(gen uint64, fn func()) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if gen != cs.gen {
		return false
	}
	if cs.cancel != nil {
		cs.cancel()
		cs.cancel = nil
	}
	fn()
	return true
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs the orchestration pipelines: it consumes intent events
// from the bus, performs the backend calls, and is the sole writer of the
// store. The presentation layer talks to it only through the producer
// methods and the store's cells.
type Controller struct {
	client *api.Client
	bus    *bus.Bus
	store  *store.Store
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	chat   channelState
	upload channelState
	health channelState
}

// New creates a Controller. A nil logger disables logging.
func New(client *api.Client, b *bus.Bus, s *store.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		client: client,
		bus:    b,
		store:  s,
		log:    log.Named("controller"),
	}
}

// Start subscribes the three pipelines and fires the initial health check.
// It must be called exactly once; Close tears everything down.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	chatEvents, err := c.bus.SubscribeChat(c.ctx)
	if err != nil {
		return err
	}
	uploadEvents, err := c.bus.SubscribeUpload(c.ctx)
	if err != nil {
		return err
	}
	healthEvents, err := c.bus.SubscribeHealth(c.ctx)
	if err != nil {
		return err
	}

	c.wg.Add(3)
	go c.chatPipeline(chatEvents)
	go c.uploadPipeline(uploadEvents)
	go c.healthPipeline(healthEvents)

	return c.bus.PublishHealth()
}

// Close cancels all in-flight work and waits for the pipelines to drain.
func (c *Controller) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// =============================================================================
// PRODUCERS
// =============================================================================

// SendMessage validates and publishes a chat request. Leading and trailing
// whitespace is trimmed; an empty result is rejected, as is sending while a
// chat request is already loading.
func (c *Controller) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if c.store.Loading.Get() {
		return ErrBusy
	}
	return c.bus.PublishChat(bus.ChatRequest{
		Message: text,
		UseRAG:  c.store.RagEnabled.Get(),
	})
}

// UploadFile publishes an upload request for a local file.
func (c *Controller) UploadFile(path, subject, grade, topic string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	return c.bus.PublishUpload(bus.UploadRequest{
		Path:    path,
		Subject: subject,
		Grade:   grade,
		Topic:   topic,
	})
}

// RefreshStats publishes a health-check trigger.
func (c *Controller) RefreshStats() error {
	return c.bus.PublishHealth()
}

// ClearConversation resets the conversation to the welcome message. This is
// a direct store write, not a pipeline: there is no backend call to
// orchestrate and nothing to supersede.
func (c *Controller) ClearConversation() {
	c.store.Reset()
}

// SetRagEnabled flips document retrieval for subsequent chat requests.
// In-flight requests keep the flag they were accepted with.
func (c *Controller) SetRagEnabled(enabled bool) {
	c.store.RagEnabled.Set(enabled)
}

// =============================================================================
// CHAT PIPELINE
// =============================================================================

func (c *Controller) chatPipeline(events <-chan bus.ChatRequest) {
	defer c.wg.Done()

	for event := range events {
		reqCtx, gen := c.chat.accept(c.ctx)

		// Acceptance writes, in push order.
		c.store.Loading.Set(true)
		c.store.Err.Set("")
		c.store.AppendMessage(model.NewUserMessage(event.Message))

		// The outgoing history includes the turn just appended; the
		// backend receives the message both separately and as the last
		// history entry.
		history := c.store.History()

		c.log.Info("chat request accepted",
			zap.Uint64("gen", gen),
			zap.Bool("use_rag", event.UseRAG))

		c.wg.Add(1)
		go c.dispatchChat(reqCtx, gen, event, history)
	}
}

func (c *Controller) dispatchChat(ctx context.Context, gen uint64, event bus.ChatRequest, history []api.ChatTurn) {
	defer c.wg.Done()

	resp, err := c.client.SendChat(ctx, event.Message, history, event.UseRAG)

	committed := c.chat.commit(gen, func() {
		if err != nil {
			c.store.Err.Set(errorText(err))
			c.store.AppendMessage(model.NewAssistantMessage(api.ChatUnavailableMessage))
		} else {
			c.store.AppendMessage(model.NewAssistantMessage(resp.Response))
		}
		c.store.Loading.Set(false)
	})

	switch {
	case !committed:
		c.log.Debug("chat completion superseded", zap.Uint64("gen", gen))
	case err != nil:
		c.log.Warn("chat request failed", zap.Uint64("gen", gen), zap.Error(err))
	default:
		c.log.Info("chat request completed",
			zap.Uint64("gen", gen),
			zap.Bool("rag_used", resp.RAGUsed),
			zap.Int("sources", len(resp.Sources)))
	}
}

// =============================================================================
// UPLOAD PIPELINE
// =============================================================================

func (c *Controller) uploadPipeline(events <-chan bus.UploadRequest) {
	defer c.wg.Done()

	for event := range events {
		reqCtx, gen := c.upload.accept(c.ctx)

		c.log.Info("upload request accepted",
			zap.Uint64("gen", gen),
			zap.String("path", event.Path))

		c.wg.Add(1)
		go c.dispatchUpload(reqCtx, gen, event)
	}
}

func (c *Controller) dispatchUpload(ctx context.Context, gen uint64, event bus.UploadRequest) {
	defer c.wg.Done()

	resp, err := c.runUpload(ctx, event)

	committed := c.upload.commit(gen, func() {
		if err != nil {
			// Uploads never touch the conversation log.
			c.store.Err.Set(UploadFailedMessage)
			return
		}
		c.store.Upload.Set(&store.UploadNotice{
			Filename:       resp.Filename,
			DocumentsAdded: resp.DocumentsAdded,
		})
	})

	switch {
	case !committed:
		c.log.Debug("upload completion superseded", zap.Uint64("gen", gen))
	case err != nil:
		c.log.Warn("upload failed",
			zap.Uint64("gen", gen),
			zap.String("path", event.Path),
			zap.Error(err))
	default:
		c.log.Info("upload completed",
			zap.Uint64("gen", gen),
			zap.String("filename", resp.Filename),
			zap.Int("documents_added", resp.DocumentsAdded))

		// New documents change the backend's stats; re-check.
		if perr := c.bus.PublishHealth(); perr != nil {
			c.log.Warn("failed to trigger post-upload health check", zap.Error(perr))
		}
	}
}

func (c *Controller) runUpload(ctx context.Context, event bus.UploadRequest) (*api.UploadResponse, error) {
	f, err := os.Open(event.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.client.UploadFile(ctx, filepath.Base(event.Path), f, api.UploadMetadata{
		Subject: event.Subject,
		Grade:   event.Grade,
		Topic:   event.Topic,
	})
}

// =============================================================================
// HEALTH PIPELINE
// =============================================================================

func (c *Controller) healthPipeline(events <-chan struct{}) {
	defer c.wg.Done()

	for range events {
		reqCtx, gen := c.health.accept(c.ctx)

		c.wg.Add(1)
		go c.dispatchHealth(reqCtx, gen)
	}
}

func (c *Controller) dispatchHealth(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	resp, err := c.client.CheckHealth(ctx)

	committed := c.health.commit(gen, func() {
		if err != nil {
			// Stale stats are better than none; keep whatever the last
			// successful check reported.
			c.store.Err.Set(HealthWarningMessage)
			return
		}
		stats := resp.RAGStats
		c.store.Stats.Set(&stats)
		c.store.Err.Update(func(cur string) string {
			if cur == HealthWarningMessage {
				return ""
			}
			return cur
		})
	})

	switch {
	case !committed:
		c.log.Debug("health completion superseded", zap.Uint64("gen", gen))
	case err != nil:
		c.log.Warn("health check failed", zap.Uint64("gen", gen), zap.Error(err))
	default:
		c.log.Debug("health check ok",
			zap.Uint64("gen", gen),
			zap.Int("total_documents", resp.RAGStats.TotalDocuments))
	}
}

// errorText extracts the user-facing text of a transport failure.
func errorText(err error) string {
	var clientErr *api.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return err.Error()
}
