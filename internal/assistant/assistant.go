// Package assistant talks to the Gemini generateContent REST API to write,
// explain and summarise SQL for the chat sidebar.
package assistant

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/logger"
)

// Mode selects the prompt and the shape of the answer.
type Mode string

const (
	ModeGenerate      Mode = "generate"
	ModeExplain       Mode = "explain"
	ModeExplainSchema Mode = "explain_schema"
)

// ParseMode maps unknown and empty values to ModeGenerate.
func ParseMode(s string) Mode {
	switch m := Mode(s); m {
	case ModeExplain, ModeExplainSchema:
		return m
	default:
		return ModeGenerate
	}
}

// Explains reports whether the mode answers with free-form Markdown.
func (m Mode) Explains() bool {
	return m == ModeExplain || m == ModeExplainSchema
}

// Config holds the assistant settings.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts bounds calls per request when the API answers 429.
	MaxAttempts uint `yaml:"max_attempts"`

	// RetryDelay is the first backoff; each retry doubles it.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

func DefaultConfig() Config {
	return Config{
		Model:       "gemini-2.0-flash",
		BaseURL:     "https://generativelanguage.googleapis.com",
		Timeout:     60 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

// ErrNoAPIKey is returned when no key is configured.
var ErrNoAPIKey = errs.New(errs.ErrKindUnavailable, "GEMINI_API_KEY not found in environment variables")

// Request is one question from the chat sidebar. SchemaContext is embedded
// in the prompt as indented JSON.
type Request struct {
	Prompt        string
	SchemaContext any
	Mode          Mode
}

// Answer carries Explanation for the explain modes and Suggestion for
// ModeGenerate.
type Answer struct {
	Mode        Mode
	Explanation string
	Suggestion  *Suggestion
}

// Client is safe for concurrent use.
type Client struct {
	cfg  Config
	http *resty.Client
	log  *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if log == nil {
		log = logger.Nop()
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}

	return &Client{cfg: cfg, http: hc, log: log}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Ask renders the prompt for req.Mode, calls the model and shapes its reply.
func (c *Client) Ask(ctx context.Context, req Request) (*Answer, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}
	req.Mode = ParseMode(string(req.Mode))

	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to build prompt", err)
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if req.Mode.Explains() {
		return &Answer{Mode: req.Mode, Explanation: text}, nil
	}
	s := parseSuggestion(text)
	return &Answer{Mode: req.Mode, Suggestion: &s}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generate sends prompt, retrying with exponential backoff while the API
// answers 429.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}

	var text string
	err := retry.Do(
		func() error {
			var err error
			text, err = c.call(ctx, body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(errs.IsRateLimited),
		retry.OnRetry(func(n uint, err error) {
			c.log.With().Str("model", c.cfg.Model).Int("attempt", int(n)+1).Err(err).Logger().
				Warn("gemini rate limited, retrying")
		}),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, body generateRequest) (string, error) {
	var out generateResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.cfg.Model).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		if ctx.Err() != nil {
			return "", errs.Wrap(errs.ErrKindTimeout, "assistant request canceled", err)
		}
		return "", errs.Wrap(errs.ErrKindConnectionFailed, "failed to reach the assistant", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		msg = resp.Status() + ": " + msg

		switch resp.StatusCode() {
		case http.StatusTooManyRequests:
			return "", errs.New(errs.ErrKindRateLimited, msg)
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", errs.New(errs.ErrKindPermissionDenied, msg)
		default:
			return "", errs.New(errs.ErrKindQueryFailed, msg)
		}
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errs.New(errs.ErrKindQueryFailed, "assistant returned an empty answer")
	}
	return sb.String(), nil
}
