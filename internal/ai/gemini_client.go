// Package ai wraps the Gemini SDK behind the two operations the service
// needs: one-shot PDF extraction and report-grounded chat.
package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/systemage/systemagego/internal/models"
)

// GeminiClient interacts with the Google Gemini API using the official SDK.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	retry  RetryConfig
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-3-flash-preview"
	}

	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
		retry:  DefaultRetryConfig(),
	}, nil
}

// Close closes the client connection.
func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ExtractReport sends the PDF to Gemini in a single call and returns the raw
// response text. Transient provider errors are retried with backoff here so
// the pipeline above sees only the final outcome.
func (c *GeminiClient) ExtractReport(ctx context.Context, pdf []byte) (string, error) {
	started := time.Now()
	text, err := WithRetry(ctx, c.retry, "report extraction", func(ctx context.Context) (string, error) {
		resp, err := c.model.GenerateContent(ctx,
			genai.Blob{MIMEType: "application/pdf", Data: pdf},
			genai.Text(ReportExtractionPrompt),
		)
		if err != nil {
			return "", fmt.Errorf("gemini generation error: %w", err)
		}
		return responseText(resp)
	})
	if err != nil {
		return "", err
	}
	log.Printf("[AI] Extraction call finished in %v (%d chars)", time.Since(started).Round(time.Millisecond), len(text))
	return text, nil
}

// Chat answers one user message in the context of a report. reportJSON is the
// extracted report data; history carries the prior turns of the conversation.
func (c *GeminiClient) Chat(ctx context.Context, reportJSON string, history []models.ChatMessage, message string) (string, error) {
	session := c.model.StartChat()

	session.History = []*genai.Content{
		{
			Role:  "user",
			Parts: []genai.Part{genai.Text(ChatSystemPrompt + "\n### REPORT DATA\n" + reportJSON)},
		},
		{
			Role:  "model",
			Parts: []genai.Part{genai.Text("Understood. I'll answer questions about this report.")},
		},
	}
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	return WithRetry(ctx, c.retry, "report chat", func(ctx context.Context) (string, error) {
		resp, err := session.SendMessage(ctx, genai.Text(message))
		if err != nil {
			return "", fmt.Errorf("gemini chat error: %w", err)
		}
		return responseText(resp)
	})
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	var fullText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText += string(txt)
		}
	}
	return fullText, nil
}
