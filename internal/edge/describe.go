package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// DescribeRequest is the /generate-product-description body.
type DescribeRequest struct {
	ProductName        string   `json:"productName"`
	CurrentDescription string   `json:"currentDescription"`
	Categories         []string `json:"categories"`
	Subcategories      []string `json:"subcategories"`
}

// DescribeResult carries the generated description.
type DescribeResult struct {
	Description string `json:"description"`
}

// Describer generates product descriptions through an OpenAI-compatible chat
// completions endpoint. Upstream failures fall back to a template built from
// the request, so the admin UI always gets something usable.
type Describer struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewDescriber(baseURL, apiKey, model string) *Describer {
	return &Describer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Describe returns a marketing description for the product.
func (d *Describer) Describe(ctx context.Context, req DescribeRequest) DescribeResult {
	description, err := d.generate(ctx, req)
	if err != nil {
		log.Printf("[Edge] Description generation failed, using fallback: %v", err)
		return DescribeResult{Description: fallbackDescription(req)}
	}
	return DescribeResult{Description: description}
}

func (d *Describer) generate(ctx context.Context, req DescribeRequest) (string, error) {
	prompt := fmt.Sprintf(
		"اكتب وصفاً تسويقياً قصيراً باللغة العربية لمنتج تجميل اسمه %q ضمن الفئات: %s.",
		req.ProductName, strings.Join(append(req.Categories, req.Subcategories...), "، "))
	if req.CurrentDescription != "" {
		prompt += fmt.Sprintf(" حسّن هذا الوصف الحالي: %q", req.CurrentDescription)
	}

	payload, err := json.Marshal(chatRequest{
		Model: d.model,
		Messages: []chatMessage{
			{Role: "system", Content: "أنت كاتب محتوى لمتجر مستحضرات تجميل."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completions: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("completions: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func fallbackDescription(req DescribeRequest) string {
	if req.CurrentDescription != "" {
		return req.CurrentDescription
	}
	if len(req.Categories) > 0 {
		return fmt.Sprintf("%s - منتج مميز من قسم %s.", req.ProductName, req.Categories[0])
	}
	return fmt.Sprintf("%s - منتج مميز من تشكيلتنا.", req.ProductName)
}
