package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulzwecker/asklio-case-study/config"
)

// OpenAIService sends vendor offer PDFs to the OpenAI chat completions API
// and returns the model's JSON reply as a raw record. The PDF goes to the
// model as a base64 file part; no local text extraction is performed.
type OpenAIService struct {
	config     *config.OpenAIConfig
	httpClient *http.Client
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type string    `json:"type"` // text, file
	Text string    `json:"text,omitempty"`
	File *filePart `json:"file,omitempty"`
}

type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"` // data URL with base64 payload
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAIService(cfg *config.OpenAIConfig) *OpenAIService {
	return &OpenAIService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

const extractionSystemPrompt = "You are an expert procurement extraction engine. " +
	"Given a vendor offer (a quote) in German or English, " +
	"you extract the commercial information needed to create a procurement request. " +
	"You MUST strictly follow the JSON format requested by the user. " +
	"If you are unsure about a field, use null. " +
	"Never invent values that are not supported by the document."

// ExtractOffer sends the PDF to the model and decodes its JSON reply. It is
// a single attempt: any failure (transport, API error, empty or unparsable
// content) is returned as an error with no retry.
func (s *OpenAIService) ExtractOffer(ctx context.Context, filename string, pdf []byte) (map[string]any, error) {
	reqBody := chatCompletionRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: []contentPart{
				{
					Type: "file",
					File: &filePart{
						Filename: filename,
						FileData: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
					},
				},
				{Type: "text", Text: buildExtractionInstructions()},
			}},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(s.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("OpenAI API status %d: %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("OpenAI returned empty content")
	}

	// Decode with UseNumber so money values survive as exact strings until
	// the normalizer converts them to decimals.
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		snippet := content
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		return nil, fmt.Errorf("OpenAI returned invalid JSON: %w, snippet: %s", err, snippet)
	}

	return raw, nil
}

func buildExtractionInstructions() string {
	return `You receive a vendor offer (quote) as a PDF document.

Your goal is to extract all commercial information needed for a procurement request.

Return ONLY valid JSON (no explanation, no markdown, no comments) with exactly these fields:

{
  "requestor_name": string or null,     // person the offer is addressed to, if any
  "vendor_name": string,                // legal/vendor name as written in the offer
  "vendor_vat_id": string or null,      // VAT ID / Umsatzsteuer-ID, e.g. "DE123456789"
  "department": string or null,         // internal department the offer is addressed to
  "title": string or null,              // short description of what is being procured
  "order_lines": [
    {
      "position_description": string,   // free-text product/service description
      "unit_price": number,             // numeric unit price, no currency symbol
      "amount": number,                 // quantity (e.g. 1, 5, 10)
      "unit": string,                   // unit label, e.g. "Stk", "pieces", "licenses"
      "total_price": number             // unit_price * amount
    }
  ],
  "total_cost": number or null,         // overall offer total; use explicit total if present, else sum of line totals
  "commodity_group_suggestion": string or null // one of the allowed commodity groups below
}

Important rules:
- The JSON must be syntactically valid.
- Do NOT include any currency symbols, thousands separators or text in numeric fields.
- Example: write 2100, not "€2.100,00" or "2100 EUR".
- Extract ALL relevant line items (products, services, shipping) that have a quantity and price.
- If the document shows multiple alternative products/variants, include each as a separate order line.
- If a field is missing in the document, set it to null.
- For title: use a concise summary of the main thing being purchased (e.g. main product name).
- For commodity_group_suggestion: pick exactly one label from this list, or null if none fits:
` + strings.Join(CommodityGroups, ", ")
}
