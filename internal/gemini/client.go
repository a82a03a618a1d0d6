// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini wraps the Google GenAI SDK for chat streaming and title
// summarization.
//
// The client converts session history into the wire shape the API
// expects, streams reply fragments through a callback or a channel, and
// throttles outbound calls with a shared rate limiter so rapid-fire
// submissions cannot trip API quotas.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// =============================================================================
// GENERATION DEFAULTS
// =============================================================================

// Wire roles for the generate-content API.
const (
	roleUser  = "user"
	roleModel = "model"
)

const (
	// DefaultChatModel handles conversation turns.
	DefaultChatModel = "gemini-3-pro-preview"

	// DefaultTitleModel summarizes first messages into session titles.
	// A small model: titles are cheap, low-stakes output.
	DefaultTitleModel = "gemini-3-flash-preview"

	defaultTemperature float32 = 0.7
	defaultTopP        float32 = 0.95
	defaultTopK        float32 = 40
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorType classifies client failures for user-facing messages.
type ErrorType string

const (
	ErrTypeAuth      ErrorType = "auth"
	ErrTypeStream    ErrorType = "stream"
	ErrTypeCancelled ErrorType = "cancelled"
)

// ClientError wraps an upstream failure with a classification.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey      string
	ChatModel   string
	TitleModel  string
	Temperature float32
	TopP        float32
	TopK        float32
	// RequestsPerMinute caps outbound API calls. Zero disables throttling.
	RequestsPerMinute int
}

// Client talks to the Gemini API.
type Client struct {
	genai   *genai.Client
	limiter *rate.Limiter

	// optMu guards the generation settings, which can be swapped at
	// runtime when the config file changes on disk.
	optMu       sync.Mutex
	chatModel   string
	titleModel  string
	temperature float32
	topP        float32
	topK        float32
}

// NewClient builds a client. The API key is required; everything else
// defaults.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, &ClientError{
			Type:    ErrTypeAuth,
			Message: "no API key configured (set GEMINI_API_KEY or api_key in config.toml)",
		}
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, &ClientError{
			Type:    ErrTypeAuth,
			Message: "failed to create Gemini client",
			Cause:   err,
		}
	}

	c := &Client{genai: gc}
	c.ApplyOptions(opts)
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)),
			opts.RequestsPerMinute,
		)
	}
	return c, nil
}

// ApplyOptions swaps the generation settings: models and sampling
// parameters. Zero values fall back to defaults. The API key and rate
// limit are fixed at construction; changing those takes a restart.
func (c *Client) ApplyOptions(opts Options) {
	c.optMu.Lock()
	defer c.optMu.Unlock()

	c.chatModel = opts.ChatModel
	c.titleModel = opts.TitleModel
	c.temperature = opts.Temperature
	c.topP = opts.TopP
	c.topK = opts.TopK
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.titleModel == "" {
		c.titleModel = DefaultTitleModel
	}
	if c.temperature == 0 {
		c.temperature = defaultTemperature
	}
	if c.topP == 0 {
		c.topP = defaultTopP
	}
	if c.topK == 0 {
		c.topK = defaultTopK
	}
}

// wait blocks until the rate limiter admits another request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Type: ErrTypeCancelled, Message: "cancelled while rate limited", Cause: err}
	}
	return nil
}

// =============================================================================
// HISTORY CONVERSION
// =============================================================================

// buildContents maps session history plus the new user turn into the
// request body. Every prior turn is replayed; the fresh text (and optional
// image) always forms the final entry.
func buildContents(history []model.Message, text string, image *model.Part) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for i := range history {
		if c := toContent(&history[i]); c != nil {
			contents = append(contents, c)
		}
	}

	parts := []*genai.Part{{Text: text}}
	if image != nil && image.InlineData != nil {
		if p := blobPart(image.InlineData); p != nil {
			parts = append(parts, p)
		}
	}
	contents = append(contents, &genai.Content{
		Role:  roleUser,
		Parts: parts,
	})
	return contents
}

// toContent converts one stored message to a wire content entry.
// Messages with no usable parts (e.g. an empty streaming placeholder)
// map to nil and are skipped.
func toContent(m *model.Message) *genai.Content {
	role := roleUser
	if m.Role == model.RoleAssistant {
		role = roleModel
	}

	var parts []*genai.Part
	if len(m.Parts) > 0 {
		for _, p := range m.Parts {
			switch {
			case p.InlineData != nil:
				if gp := blobPart(p.InlineData); gp != nil {
					parts = append(parts, gp)
				}
			case p.Text != "":
				parts = append(parts, &genai.Part{Text: p.Text})
			}
		}
	} else if m.Content != "" {
		parts = append(parts, &genai.Part{Text: m.Content})
	}

	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: role, Parts: parts}
}

// blobPart decodes stored base64 image data into a wire part. Undecodable
// data is dropped rather than failing the whole request.
func blobPart(b *model.Blob) *genai.Part {
	raw, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return nil
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: b.MIMEType,
			Data:     raw,
		},
	}
}

// chatSettings reads the reloadable settings for one request.
func (c *Client) chatSettings() (string, *genai.GenerateContentConfig) {
	c.optMu.Lock()
	defer c.optMu.Unlock()
	return c.chatModel, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
		TopP:        genai.Ptr(c.topP),
		TopK:        genai.Ptr(c.topK),
	}
}

func (c *Client) titleModelName() string {
	c.optMu.Lock()
	defer c.optMu.Unlock()
	return c.titleModel
}

// =============================================================================
// STREAMING
// =============================================================================

// StreamReply streams the model's reply to text (with optional image),
// given the prior history. onFragment receives each non-empty text chunk
// in arrival order. Returns after the stream ends or fails; fragments
// delivered before a failure stand.
func (c *Client) StreamReply(ctx context.Context, history []model.Message, text string, image *model.Part, onFragment func(string)) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	contents := buildContents(history, text, image)
	chatModel, cfg := c.chatSettings()
	for resp, err := range c.genai.Models.GenerateContentStream(ctx, chatModel, contents, cfg) {
		if err != nil {
			if ctx.Err() != nil {
				return &ClientError{Type: ErrTypeCancelled, Message: "reply cancelled", Cause: ctx.Err()}
			}
			return &ClientError{Type: ErrTypeStream, Message: "reply stream failed", Cause: err}
		}
		if chunk := resp.Text(); chunk != "" {
			onFragment(chunk)
		}
	}
	return nil
}

// StreamChunk is one event on a streaming channel.
type StreamChunk struct {
	Fragment string
	Err      error
	Done     bool
}

// StreamReplyChan is the channel variant of StreamReply for callers that
// prefer select loops over callbacks. The channel is closed after the
// final chunk; exactly one chunk has Done or Err set.
func (c *Client) StreamReplyChan(ctx context.Context, history []model.Message, text string, image *model.Part) <-chan StreamChunk {
	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		err := c.StreamReply(ctx, history, text, image, func(fragment string) {
			select {
			case ch <- StreamChunk{Fragment: fragment}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			ch <- StreamChunk{Err: err}
			return
		}
		ch <- StreamChunk{Done: true}
	}()
	return ch
}
