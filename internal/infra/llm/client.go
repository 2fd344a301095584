// Package llm is the text-generation collaborator: an OpenAI-compatible
// chat-completions client used to embellish first-time draws. It is
// best-effort by design — every failure path degrades to fixed fallback
// strings and never surfaces an error to the command flow.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/lucklab/fortuned/internal/infra/metrics"
	"github.com/lucklab/fortuned/internal/render"
)

// Fallback strings used whenever generation is disabled or fails.
const (
	FallbackProcess = "水晶球闪烁着神秘的光芒..."
	FallbackAdvice  = "今天记得多喝水哦~"
)

// Config controls the enrichment collaborator.
type Config struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Persona        string `toml:"persona"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProcessPrompt  string `toml:"process_prompt"`
	AdvicePrompt   string `toml:"advice_prompt"`
}

// DefaultConfig returns the built-in prompt templates with generation
// switched off (no endpoint configured).
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds: 30,
		ProcessPrompt:  "为用户{nickname}占卜今日人品值{jrrp}，描述占卜过程，50字以内",
		AdvicePrompt:   "对用户{nickname}的今日人品值{jrrp}（{fortune}）给出建议，50字以内",
	}
}

// Client calls a chat-completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// New builds a client. The HTTP client carries no timeout of its own;
// every call runs under a per-request context deadline.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	return &Client{cfg: cfg, http: &http.Client{}, log: log}
}

// Enrich produces the narrative and advice texts for a first-time draw.
// The two prompts run concurrently; each degrades to its fallback on its
// own, so one slow or broken completion never spoils the other.
func (c *Client) Enrich(ctx context.Context, vars map[string]any) (process, advice string) {
	process, advice = FallbackProcess, FallbackAdvice
	if !c.cfg.Enabled || c.cfg.BaseURL == "" || c.cfg.Model == "" {
		return process, advice
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if text, ok := c.generate(gctx, "process", render.Render(c.cfg.ProcessPrompt, vars)); ok {
			process = text
		}
		return nil
	})
	g.Go(func() error {
		if text, ok := c.generate(gctx, "advice", render.Render(c.cfg.AdvicePrompt, vars)); ok {
			advice = text
		}
		return nil
	})
	_ = g.Wait() // goroutines only ever return nil
	return process, advice
}

// generate runs one prompt with a bounded retry. ok is false when the
// caller should use the fallback text.
func (c *Client) generate(ctx context.Context, kind, prompt string) (string, bool) {
	requestID := uuid.New().String()[:8]
	start := time.Now()

	var text string
	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := c.chat(ctx, prompt)
		if err != nil {
			return retry.RetryableError(err)
		}
		text = out
		return nil
	})

	metrics.EnrichLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrichFailures.WithLabelValues(kind).Inc()
		c.log.Warn().Err(err).Str("request_id", requestID).Str("prompt", kind).
			Msg("text generation failed, using fallback")
		return "", false
	}
	if text == "" {
		metrics.EnrichFailures.WithLabelValues(kind).Inc()
		return "", false
	}
	c.log.Debug().Str("request_id", requestID).Str("prompt", kind).
		Dur("took", time.Since(start)).Msg("text generated")
	return text, true
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chat performs one chat-completions round trip under the config timeout.
func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	messages := make([]chatMessage, 0, 2)
	if c.cfg.Persona != "" {
		messages = append(messages, chatMessage{Role: "system", Content: c.cfg.Persona})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
