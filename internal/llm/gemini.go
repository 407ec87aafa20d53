// Package llm talks to the optional remote language model used to clean up
// OCR output and to paraphrase summaries.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Divas-Gupta30/readease/internal/logging"
)

const (
	DefaultGeminiEndpoint   = "https://generativelanguage.googleapis.com/v1beta/"
	defaultGeminiModel      = "gemini-2.0-flash"
	generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"
	maxResponseSize         = 4 << 20
)

// Request is one generateContent call: a system instruction plus the text
// to work on.
type Request struct {
	Instruction     string
	Text            string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int64
}

// Generator produces text for a Request. An empty reply is not an error.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	// UseADC authenticates with application default credentials instead of
	// an API key.
	UseADC     bool
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	// HTTPClient replaces the transport entirely; used by tests.
	HTTPClient *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int64   `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// APIError is a non-2xx reply or an error body from generateContent.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini error [%d]: %s", e.StatusCode, e.Message)
}

// Gemini calls {endpoint}models/{model}:generateContent.
type Gemini struct {
	client     *http.Client
	url        string
	apiKey     string
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
	log        *zap.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig, log *zap.Logger) (*Gemini, error) {
	g := &Gemini{
		timeout:   cfg.Timeout,
		retryBase: cfg.RetryBase,
		log:       logging.OrNop(log),
	}
	switch {
	case cfg.HTTPClient != nil:
		g.client = cfg.HTTPClient
		g.apiKey = strings.TrimSpace(cfg.APIKey)
	case cfg.UseADC:
		creds, err := google.FindDefaultCredentials(ctx, generativeLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("find default credentials: %w", err)
		}
		g.client = oauth2.NewClient(ctx, creds.TokenSource)
	case strings.TrimSpace(cfg.APIKey) != "":
		g.client = &http.Client{}
		g.apiKey = strings.TrimSpace(cfg.APIKey)
	default:
		return nil, errors.New("gemini: API key or application default credentials required")
	}

	ep := cfg.Endpoint
	if ep == "" {
		ep = DefaultGeminiEndpoint
	}
	if !strings.HasSuffix(ep, "/") {
		ep += "/"
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	g.url = ep + model + ":generateContent"

	if cfg.MaxRetries > 0 {
		g.maxRetries = uint64(cfg.MaxRetries)
	}
	if g.timeout <= 0 {
		g.timeout = 30 * time.Second
	}
	if g.retryBase <= 0 {
		g.retryBase = 500 * time.Millisecond
	}
	return g, nil
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Text}},
		}},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: req.Instruction}},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.WithMaxRetries(g.maxRetries, retry.WithJitter(g.retryBase/4, retry.NewExponential(g.retryBase)))

	var out string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		text, err := g.post(ctx, body)
		if err != nil {
			if retryable(err) {
				g.log.Warn("generateContent failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini generateContent: %w", err)
	}
	return out, nil
}

func (g *Gemini) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed geminiResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if parsed.Error != nil {
		code := parsed.Error.Code
		if code == 0 {
			code = resp.StatusCode
		}
		return "", &APIError{StatusCode: code, Message: parsed.Error.Message}
	}
	return firstText(&parsed), nil
}

// firstText returns candidates[0].content.parts[0].text, trimmed.
func firstText(resp *geminiResponse) string {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
}

func retryable(err error) bool {
	var aerr *APIError
	if errors.As(err, &aerr) {
		return aerr.StatusCode == http.StatusTooManyRequests || aerr.StatusCode >= 500
	}
	return false
}
