// Package completion talks to OpenAI-compatible chat completion endpoints.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// Sentinel errors for completion requests.
var (
	ErrNoAPIKey        = errors.New("API key not configured")
	ErrNoMessages      = errors.New("at least one message is required")
	ErrEmptyCompletion = errors.New("completion has no content")
	ErrCompletion      = errors.New("completion request failed")
)

// BaseInstruction is always sent as the first system message. It asks the
// model for output the formatter's charset policy will keep intact.
const BaseInstruction = "Answer only in the user's language (Spanish by default). " +
	"Never use characters from non-Latin alphabets such as Chinese, Japanese or Cyrillic; " +
	"ignore stray tokens of that kind. Keep technical terms in their standard English form. " +
	"Format your answer as Markdown."

const warmupMaxTokens = 5

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// Exchange is a previous user prompt and the raw model answer to it.
type Exchange struct {
	User string
	AI   string
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64 // 0 = endpoint default
	Timeout     time.Duration
	MaxRetries  int
	HTTPClient  *http.Client // nil = http.DefaultClient
}

// Client sends chat completion requests. Safe for concurrent use.
type Client struct {
	api    openai.Client
	cfg    Config
	logger logrus.FieldLogger
}

// NewClient creates a Client. Returns ErrNoAPIKey when cfg.APIKey is empty.
func NewClient(cfg Config, logger logrus.FieldLogger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:    openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger.WithField("component", "completion"),
	}, nil
}

// SendCompletion returns the content of the first choice.
func (c *Client) SendCompletion(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.cfg.Model,
		Messages: convertMessages(messages),
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(c.cfg.Temperature)
	}

	content, err := c.create(ctx, params)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// Warmup sends a tiny request so the endpoint loads the model.
// Reports whether the endpoint answered.
func (c *Client) Warmup(ctx context.Context) bool {
	_, err := c.create(ctx, openai.ChatCompletionNewParams{
		Model:     c.cfg.Model,
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		MaxTokens: openai.Int(warmupMaxTokens),
	})
	if err != nil {
		c.logger.WithError(err).Warn("warmup failed")
		return false
	}
	return true
}

func (c *Client) create(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %s", ErrCompletion, apiErr.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	c.logger.WithFields(logrus.Fields{
		"model":    resp.Model,
		"duration": time.Since(start),
		"tokens":   resp.Usage.TotalTokens,
	}).Debug("completion received")

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// BuildMessages assembles a request: the base instruction (extended by
// systemPrompt), the last turns exchanges of history, then prompt.
// A negative turns sends the whole history.
func BuildMessages(systemPrompt string, history []Exchange, turns int, prompt string) []Message {
	system := BaseInstruction
	if s := strings.TrimSpace(systemPrompt); s != "" {
		system += " " + s
	}

	if turns >= 0 && len(history) > turns {
		history = history[len(history)-turns:]
	}

	messages := make([]Message, 0, 2+2*len(history))
	messages = append(messages, Message{Role: RoleSystem, Content: system})
	for _, ex := range history {
		messages = append(messages, Message{Role: RoleUser, Content: ex.User})
		if ex.AI != "" {
			messages = append(messages, Message{Role: RoleAssistant, Content: ex.AI})
		}
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}
