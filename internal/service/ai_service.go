package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postcraft/configs"
	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/observability"
	"golang.org/x/oauth2/clientcredentials"
)

type GenerateRequest struct {
	Topic           string `json:"topic"`
	Tone            string `json:"tone"`
	SpecificDetails string `json:"specific_details"`
	UserID          string `json:"user_id"`
}

type GeneratedPost struct {
	Hook         string   `json:"hook"`
	Content      string   `json:"content"`
	Hashtags     []string `json:"hashtags"`
	CallToAction string   `json:"call_to_action"`
}

type generateResponse struct {
	Post *GeneratedPost `json:"post"`
}

// AIService drafts post content from a topic.
type AIService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GeneratedPost, error)
}

type aiService struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewAIService builds the drafting client. When AI client credentials are
// configured, requests carry an OAuth2 client-credentials token.
func NewAIService(cfg config.Config) AIService {
	client := &http.Client{}
	if cfg.AI.ClientID != "" && cfg.AI.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.AI.ClientID,
			ClientSecret: cfg.AI.ClientSecret,
			TokenURL:     cfg.AI.TokenURL,
		}
		client = cc.Client(context.Background())
	}

	return newAIService(cfg.AI.URL, cfg.AI.Timeout, client)
}

func newAIService(url string, timeout time.Duration, client *http.Client) *aiService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &aiService{url: url, timeout: timeout, client: client}
}

func (s *aiService) Generate(ctx context.Context, req GenerateRequest) (*GeneratedPost, error) {
	post, err := s.generate(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.AIRequestsTotal.WithLabelValues(outcome).Inc()
	return post, err
}

func (s *aiService) generate(ctx context.Context, req GenerateRequest) (*GeneratedPost, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = models.NewUpstreamError(fmt.Sprintf("AI service timed out after %s", s.timeout), err)
		} else {
			err = models.NewUpstreamError("AI service request failed", err)
		}
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewUpstreamError("reading AI service response failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		err := models.NewUpstreamError("AI service error: "+msg, nil)
		slog.Info(err.Error())
		return nil, err
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, models.NewUpstreamError("malformed AI response", err)
	}
	if err := validateGeneratedPost(out.Post); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return out.Post, nil
}

func validateGeneratedPost(p *GeneratedPost) error {
	if p == nil {
		return models.NewUpstreamError("malformed AI response: missing post", nil)
	}

	var missing []string
	if strings.TrimSpace(p.Hook) == "" {
		missing = append(missing, "hook")
	}
	if strings.TrimSpace(p.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(p.CallToAction) == "" {
		missing = append(missing, "call_to_action")
	}
	if len(missing) > 0 {
		return models.NewUpstreamError("malformed AI response: missing "+strings.Join(missing, ", "), nil)
	}

	return nil
}

// FormatGeneratedContent assembles the post body: hook, content, hashtags (if
// any) and call to action, separated by blank lines.
func FormatGeneratedContent(p *GeneratedPost) string {
	parts := []string{p.Hook, p.Content}
	if len(p.Hashtags) > 0 {
		parts = append(parts, strings.Join(p.Hashtags, " "))
	}
	parts = append(parts, p.CallToAction)
	return strings.Join(parts, "\n\n")
}
