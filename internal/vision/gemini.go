// Package vision extracts handwritten log rows from photos using a
// Gemini vision model. The model is instructed to treat every provided
// image as one continuous document and to answer with a strictly
// parseable JSON array, using '?' wherever a character could not be
// read from the handwriting.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"logautofill/internal/record"
)

// Engine talks to the Gemini API. A client is built per call; the API
// key is held for the process lifetime.
type Engine struct {
	APIKey string
	Model  string
}

// New creates a Gemini extraction engine.
func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

const systemInstruction = `You are an expert Industrial Data Extraction Engine.
Analyze images of handwritten paper logs and extract rows into structured data.

Data Schema:
- scNo: Service Connection Number. A strict 13-digit sequence (e.g., 2612345678901).
- dtrCode: Transformer identifier. Often alphanumeric (e.g., DTR-102, T-500).
- feederName: Electrical feeder description.
- location: Physical site or address details.

Critical Processing Rules:
1. PRECISION: SC NO must be 13 digits. If digits are missing or unclear, use '?' at the specific position (e.g., '261234?678901').
2. STRUCTURE: Detect the rows in the paper table. Each row on paper corresponds to one JSON object.
3. CLEANING: Remove any leading/trailing whitespace or extra symbols from the handwriting.
4. HANDWRITING: Use visual context to distinguish between '5' and 'S', '0' and 'O', '1' and 'I' or 'l'.
5. MULTI-IMAGE: Treat all provided images as a single continuous log.
6. OUTPUT: Provide only a JSON array. No explanations or conversational text.`

const userPrompt = "Extract all rows from these log sheets into the specified JSON format."

// Extract sends the images to the model and returns one draft record
// per detected row, confidence-tagged. An empty or unparseable model
// answer is an error; no partial batch is ever returned.
func (e *Engine) Extract(ctx context.Context, images [][]byte) ([]record.LogRecord, error) {
	if e.APIKey == "" {
		return nil, errors.New("extraction transport unavailable: GEMINI_API_KEY is empty")
	}
	if len(images) == 0 {
		return nil, errors.New("extraction produced no data: no images provided")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, fmt.Errorf("extraction transport unavailable: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   rowSchema(),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.Blob{MIMEType: sniffImageMIME(img), Data: img})
	}
	parts = append(parts, genai.Text(userPrompt))

	// A couple of retries for transient 5xx failures; anything else
	// surfaces immediately.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = fmt.Errorf("extraction transport unavailable: %w", err)
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return nil, errors.New("extraction produced no data: empty model response")
		}
		return ParseRows(txt)
	}
	return nil, lastErr
}

// rowSchema mirrors the extraction output: an array of objects with the
// four string fields, all required.
func rowSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"scNo":       {Type: genai.TypeString, Description: "13-digit SC number"},
				"dtrCode":    {Type: genai.TypeString, Description: "DTR ID"},
				"feederName": {Type: genai.TypeString, Description: "Feeder"},
				"location":   {Type: genai.TypeString, Description: "Site location"},
			},
			Required: []string{"scNo", "dtrCode", "feederName", "location"},
		},
	}
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func ptrFloat32(f float32) *float32 { return &f }
