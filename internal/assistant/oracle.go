package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DraftToolName is the function the model may call to produce an FIR draft
const DraftToolName = "generateFIRDraft"

var (
	ErrNoCandidates = errors.New("oracle returned no candidates")
	ErrEmptyReply   = errors.New("oracle returned no text")
)

// Request is one prompt sent to the oracle
type Request struct {
	Prompt string
	// DraftTool declares generateFIRDraft so the model can ask for a draft
	DraftTool bool
}

// Completion is the oracle's answer. When the model called the draft tool,
// Drafted is set and Incident carries the tool argument.
type Completion struct {
	Text     string
	Drafted  bool
	Incident string
}

// Oracle is an external text-completion service
type Oracle interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// GeminiOracle calls the Gemini generateContent API
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// GeminiConfig configures GeminiOracle
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // optional endpoint override
	HTTPClient *http.Client
}

// NewGeminiOracle creates a Gemini-backed oracle
func NewGeminiOracle(ctx context.Context, cfg GeminiConfig) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiOracle{client: client, model: model}, nil
}

// Model returns the configured model name
func (o *GeminiOracle) Model() string {
	return o.model
}

// Complete sends the prompt and extracts the first candidate's text parts,
// or the draft tool call if the model made one.
func (o *GeminiOracle) Complete(ctx context.Context, req Request) (Completion, error) {
	var config *genai.GenerateContentConfig
	if req.DraftTool {
		config = &genai.GenerateContentConfig{
			Tools: []*genai.Tool{draftTool()},
		}
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(req.Prompt), config)
	if err != nil {
		return Completion{}, fmt.Errorf("gemini generateContent failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Completion{}, ErrNoCandidates
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if call := part.FunctionCall; call != nil && call.Name == DraftToolName {
			incident, _ := call.Args["incident"].(string)
			if strings.TrimSpace(incident) == "" {
				return Completion{}, ErrEmptyReply
			}
			return Completion{Drafted: true, Incident: incident}, nil
		}
		text.WriteString(part.Text)
	}

	if strings.TrimSpace(text.String()) == "" {
		return Completion{}, ErrEmptyReply
	}
	return Completion{Text: text.String()}, nil
}

func draftTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        DraftToolName,
				Description: "Generate a simple FIR draft for a citizen",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"incident": {
							Type:        genai.TypeString,
							Description: "Incident description provided by the user",
						},
					},
					Required: []string{"incident"},
				},
			},
		},
	}
}
