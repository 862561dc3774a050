package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/notifa-ai/notifa-engine/internal/domain"
)

const (
	defaultClassifyTimeout = 10 * time.Second
	defaultModel           = "gemini-2.5-flash"
	maxExamplesInPrompt    = 5
)

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClassifier calls a Gemini-compatible generateContent HTTP endpoint.
type GeminiClassifier struct {
	client  *resty.Client
	baseURL string
	model   string
	apiKey  string
}

func NewGeminiClassifier(baseURL, apiKey, model string) (*GeminiClassifier, error) {
	client := resty.New()
	client.SetTimeout(defaultClassifyTimeout)
	client.SetRetryCount(0)

	return NewGeminiClassifierWithClient(baseURL, apiKey, model, client)
}

func NewGeminiClassifierWithClient(baseURL, apiKey, model string, client *resty.Client) (*GeminiClassifier, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("classifier base url is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultClassifyTimeout)
	}
	client.SetRetryCount(0)

	return &GeminiClassifier{
		client:  client,
		baseURL: trimmedURL,
		model:   strings.TrimSpace(model),
		apiKey:  strings.TrimSpace(apiKey),
	}, nil
}

func (c *GeminiClassifier) ClassifyPriority(
	ctx context.Context,
	title, body, packageName string,
	examples []domain.UserFeedback,
) (domain.Priority, error) {
	prompt := buildClassifyPrompt(title, body, packageName, examples)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	return ParsePriorityResponse(text), nil
}

func (c *GeminiClassifier) SummarizeBatch(ctx context.Context, items []BatchItem) (string, error) {
	if len(items) == 0 {
		return emptyBatchDigest, nil
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s - %s", item.AppName, item.Title, item.Body))
	}

	prompt := fmt.Sprintf(
		"You have %d notifications. Create a brief summary (max 30 words):\n\n%s\n\nProvide ONLY the summary highlighting key points.",
		len(items),
		strings.Join(lines, "\n"),
	)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return FallbackDigest(items), nil
	}
	if strings.TrimSpace(text) == "" {
		return FallbackDigest(items), nil
	}

	return strings.TrimSpace(text), nil
}

func (c *GeminiClassifier) SummarizeOne(ctx context.Context, title, body, appName string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this notification in one concise sentence (max 15 words):\n\nApp: %s\nTitle: %s\nContent: %s\n\nProvide ONLY the summary, no extra text.",
		appName, title, body,
	)

	text, err := c.generate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return "Summary unavailable", nil
	}

	return strings.TrimSpace(text), nil
}

func (c *GeminiClassifier) generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("classifier is not initialized")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	var parsed generateContentResponse
	request := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(generateContentRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
		}).
		SetResult(&parsed)
	if c.apiKey != "" {
		request.SetHeader("x-goog-api-key", c.apiKey)
	}

	response, err := request.Post(url)
	if err != nil {
		return "", &ClassifierError{
			Message:   "classifier request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return "", &ClassifierError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("classifier returned status %d", statusCode),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &ClassifierError{
			StatusCode: statusCode,
			Message:    "classifier returned no candidates",
			Transient:  false,
		}
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func buildClassifyPrompt(title, body, packageName string, examples []domain.UserFeedback) string {
	var sb strings.Builder

	sb.WriteString("Analyze this notification from '")
	sb.WriteString(packageName)
	sb.WriteString("' and respond with ONLY ONE of the following categories: My Priority, Important, Promotional, Spam, Ignore\n\n")
	sb.WriteString("Title: ")
	sb.WriteString(title)
	sb.WriteString("\nContent: ")
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString("- My Priority: Urgent, from a person, time-sensitive alerts.\n")
	sb.WriteString("- Important: General messages, updates, and news.\n")
	sb.WriteString("- Promotional: Advertisements, sales, and marketing messages.\n")
	sb.WriteString("- Spam: Unsolicited, irrelevant, or unwanted messages.\n")
	sb.WriteString("- Ignore: Content the user never wants to see at all.\n")

	if len(examples) > 0 {
		capped := examples
		if len(capped) > maxExamplesInPrompt {
			capped = capped[:maxExamplesInPrompt]
		}
		sb.WriteString("\nThe user has corrected previous classifications from this app. ")
		sb.WriteString("These corrections override the general rules above:\n")
		for _, example := range capped {
			sb.WriteString(fmt.Sprintf(
				"- %q / %q was %s, the user said %s\n",
				example.Title,
				example.Body,
				example.PredictedPriority.Label(),
				example.CorrectedPriority.Label(),
			))
		}
	}

	sb.WriteString("\nResponse (one category only):")
	return sb.String()
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
