package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"phish-scoreboard/utils"
)

// PhishingEmail is the two-field object the model must return.
type PhishingEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var phishingPrompt = template.Must(template.New("phishing").Parse(`
Act as a cybersecurity expert creating a realistic phishing simulation for an educational project.
Your task is to generate a convincing phishing email based on the following scenario.

Crucially, you MUST include the following fake phishing link exactly as provided: {{.Link}}

Scenario: "{{.Scenario}}"

Respond with ONLY a valid JSON object in the following format:
{
  "subject": "Your Phishing Email Subject Line",
  "body": "Your phishing email body text here. Make sure to embed the link naturally in the text."
}
`))

// PhishingGenerator asks a Gemini model for simulated phishing content.
type PhishingGenerator struct {
	APIKey       string
	BaseURL      string
	Model        string
	PhishingLink string
	Client       *http.Client
}

func NewPhishingGenerator(apiKey, baseURL, model, phishingLink string, timeout time.Duration) *PhishingGenerator {
	return &PhishingGenerator{
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Model:        model,
		PhishingLink: phishingLink,
		Client:       utils.NewHTTPClient(timeout),
	}
}

func (g *PhishingGenerator) Enabled() bool {
	return g != nil && g.APIKey != ""
}

// BuildPrompt renders the instruction sent to the model for scenario.
func (g *PhishingGenerator) BuildPrompt(scenario string) (string, error) {
	var buf bytes.Buffer
	err := phishingPrompt.Execute(&buf, struct {
		Link     string
		Scenario string
	}{Link: g.PhishingLink, Scenario: scenario})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Generate produces a phishing email for scenario.
func (g *PhishingGenerator) Generate(ctx context.Context, scenario string) (*PhishingEmail, error) {
	scenario = strings.TrimSpace(scenario)
	if scenario == "" {
		return nil, fmt.Errorf("%w: Prompt is missing", ErrValidation)
	}
	if !g.Enabled() {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrNotConfigured)
	}

	prompt, err := g.BuildPrompt(scenario)
	if err != nil {
		return nil, err
	}
	text, err := g.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	email, err := ParsePhishingEmail(text)
	if err != nil {
		return nil, err
	}

	log.Printf("[GENERATE] Generated phishing content for prompt: %q", scenario)
	return email, nil
}

func (g *PhishingGenerator) generateText(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Role: "user", Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, url.PathEscape(g.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: call model: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: model returned %d: %.200s", ErrUpstream, resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty model response", ErrUpstream)
	}
	return sb.String(), nil
}

// ParsePhishingEmail strips code fences and an optional "json" tag from the
// model output and requires both subject and body.
func ParsePhishingEmail(text string) (*PhishingEmail, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "`", ""))
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "json"))

	var email PhishingEmail
	if err := json.Unmarshal([]byte(cleaned), &email); err != nil {
		return nil, fmt.Errorf("%w: model output is not a JSON object: %w", ErrUpstream, err)
	}
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Body) == "" {
		return nil, fmt.Errorf("%w: model output must contain subject and body", ErrUpstream)
	}
	return &email, nil
}
