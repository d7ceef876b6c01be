// Package slip_reader extracts the paid amount and transfer reference from a payment slip image.
package slip_reader

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// SlipReading is what could be read from a slip; zero values mean the field was not found.
type SlipReading struct {
	Amount    float64 `json:"-"`
	Reference string  `json:"reference"`
	RawAmount string  `json:"amount"`
}

// Reader reads a payment slip. Implementations must be safe for concurrent use.
type Reader interface {
	Read(ctx context.Context, image []byte, mimeType string) (*SlipReading, error)
}

const slipPrompt = `Analyze this bank transfer or payment receipt image and extract the following information. Return ONLY valid JSON.

If a field is missing or unclear, use an empty string.

Required JSON format:
{
"amount": string,      // total amount transferred, digits only with an optional decimal point
"reference": string    // transaction or reference number
}`

type GeminiReader struct {
	client *genai.Client
	model  string
}

func NewGeminiReader(ctx context.Context, apiKey, model string) (*GeminiReader, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiReader{client: client, model: model}, nil
}

func (g *GeminiReader) Read(ctx context.Context, image []byte, mimeType string) (*SlipReading, error) {
	content := &genai.Content{
		Parts: []*genai.Part{
			{Text: slipPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0.1))})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with OCR: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated by OCR")
	}

	text := result.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("empty response from OCR")
	}
	return ParseReading(text)
}

// ParseReading decodes the model's answer, with or without a markdown code fence.
func ParseReading(text string) (*SlipReading, error) {
	jsonText := extractJSONFromMarkdown(text)

	var reading SlipReading
	if err := json.Unmarshal([]byte(jsonText), &reading); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, response: %s", err, jsonText)
	}
	reading.Reference = strings.TrimSpace(reading.Reference)
	reading.Amount = parseAmount(reading.RawAmount)
	return &reading, nil
}

// parseAmount accepts "150000", "150,000.50" and "Rp 150.000"; anything else reads as 0.
func parseAmount(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0
	}

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the later separator is the decimal one
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		s = groupedOrDecimal(s, ",")
	case lastDot >= 0:
		s = groupedOrDecimal(s, ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// groupedOrDecimal treats sep as a thousands separator when every group after it has 3 digits.
func groupedOrDecimal(s, sep string) string {
	parts := strings.Split(s, sep)
	grouped := len(parts) > 1
	for _, p := range parts[1:] {
		if len(p) != 3 {
			grouped = false
		}
	}
	if grouped {
		return strings.Join(parts, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// extractJSONFromMarkdown extracts JSON content from markdown code blocks
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 1 {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	return text
}

// IsValidImageType checks if the provided content type is a readable slip image
func IsValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
