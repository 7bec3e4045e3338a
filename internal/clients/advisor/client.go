package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	completionsUrl = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-3.5-turbo"
	maxTipTokens   = 300
)

const systemPrompt = "You are a personal finance assistant. Answer with short, practical tips."

type config interface {
	ApiKey() string
	Model() string
}

// Client talks to an OpenAI-compatible chat completions endpoint. It is an
// advisory add-on only: nothing on the expansion or monitoring path waits
// for it.
type Client struct {
	apiKey string
	model  string
	http   *http.Client
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func New(config config) *Client {
	model := config.Model()
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey: config.ApiKey(),
		model:  model,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// BudgetTip asks for a one-paragraph budgeting recommendation for the
// category whose budget was exceeded.
func (c *Client) BudgetTip(ctx context.Context, category string, spent, limit string) (string, error) {
	prompt := fmt.Sprintf(
		"The monthly budget for category %q is %s and spending already reached %s. Suggest one short tip to get back under budget.",
		category, limit, spent)
	return c.complete(ctx, prompt)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTipTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshalling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsUrl, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	var completion completionResponse
	err = json.Unmarshal(raw, &completion)
	if err != nil {
		return "", errors.Wrap(err, "unmarshalling response")
	}
	if completion.Error != nil {
		return "", errors.New(completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}
