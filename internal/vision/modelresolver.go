package vision

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/pkg/anthropic"
)

const identifyPrompt = `You are identifying a graded Pokemon card slab from a single image. Return strict JSON with keys: cardName, setName, cardNumber, gradingCompany, gradeNumeric, certNumber, confidence, alternatives, rawLabelText. alternatives should be up to 2 objects with cardName, setName, cardNumber. confidence is 0.0-1.0. Return only the JSON object, no prose.`

// ModelResolver asks a vision model to read the slab image and return
// strict structured fields.
type ModelResolver struct {
	client    anthropic.Client
	modelName string
}

// NewModelResolver creates a model-backed resolver.
func NewModelResolver(client anthropic.Client, modelName string) *ModelResolver {
	return &ModelResolver{client: client, modelName: modelName}
}

// visionPayload mirrors the JSON shape the prompt asks for.
type visionPayload struct {
	CardName       string  `json:"cardName"`
	SetName        string  `json:"setName"`
	CardNumber     string  `json:"cardNumber"`
	GradingCompany string  `json:"gradingCompany"`
	GradeNumeric   float64 `json:"gradeNumeric"`
	CertNumber     string  `json:"certNumber"`
	Confidence     float64 `json:"confidence"`
	Alternatives   []struct {
		CardName   string `json:"cardName"`
		SetName    string `json:"setName"`
		CardNumber string `json:"cardNumber"`
	} `json:"alternatives"`
	RawLabelText string `json:"rawLabelText"`
}

// Resolve issues one image-understanding request and parses the
// response. Parse failures surface as errors so the fallback decorator
// can take over.
func (r *ModelResolver) Resolve(ctx context.Context, imageBase64 string, hint model.GradingCompany) (*model.ResolvedIdentity, error) {
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.modelName,
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			{
				Role:        "user",
				Content:     identifyPrompt,
				ImageBase64: imageBase64,
			},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: model request")
	}

	var payload visionPayload
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &payload); err != nil {
		return nil, eris.Wrap(err, "vision: parse model response")
	}
	if payload.CardName == "" {
		return nil, eris.New("vision: model response missing card name")
	}

	grade := payload.GradeNumeric
	if grade == 0 {
		grade = 9
	}
	confidence := payload.Confidence
	if confidence == 0 {
		confidence = 0.7
	}

	identity := &model.ResolvedIdentity{
		Card: model.CardIdentity{
			Name:       payload.CardName,
			SetName:    payload.SetName,
			CardNumber: payload.CardNumber,
		},
		GradingCompany: model.NormalizeCompany(payload.GradingCompany),
		GradeNumeric:   grade,
		CertNumber:     payload.CertNumber,
		Confidence:     confidence,
		RawLabelText:   payload.RawLabelText,
	}
	for _, alt := range payload.Alternatives {
		identity.Alternatives = append(identity.Alternatives, model.CardIdentity{
			Name:       alt.CardName,
			SetName:    alt.SetName,
			CardNumber: alt.CardNumber,
		})
	}

	zap.L().Info("vision: model identification",
		zap.String("card", identity.Card.Name),
		zap.String("card_number", identity.Card.CardNumber),
		zap.Float64("grade", identity.GradeNumeric),
		zap.Float64("confidence", identity.Confidence),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return postValidate(identity, hint), nil
}

// cleanJSON strips markdown code fences and trims to the outermost
// JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
