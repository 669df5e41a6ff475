package dialogue

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/kaptinlin/jsonrepair"

	"flou/internal/llm"
	"flou/internal/logging"
)

// CrisisAssessment is the crisis guard's verdict for one message.
type CrisisAssessment struct {
	IsCrisis   bool    `json:"is_crisis"`
	Confidence float64 `json:"confidence"`
}

// Acted reports whether the orchestrator should short-circuit the turn.
func (a CrisisAssessment) Acted() bool {
	return a.IsCrisis && a.Confidence > CrisisConfidenceThreshold
}

// Self-harm indicator vocabulary. A miss here must stay the common, zero
// latency path.
var crisisPattern = regexp.MustCompile(`(?i)\b(suicid|quitarme la vida|no quiero vivir|hacerme daño|matarme|terminar con todo|autolesión|autolesion|cortarme|acabar con esto|quiero morir|sin salida|kill myself|end my life|want to die|self.?harm|hurt myself|no way out)`)

// CrisisGuard classifies text for self-harm risk: a keyword pre-filter, and
// only on a hit, a Generator confirmation to separate real risk from idiom.
type CrisisGuard struct {
	client llm.Client
	logger logging.Logger
}

// NewCrisisGuard builds the guard. A nil client skips the confirmation stage
// and keyword hits fail safe.
func NewCrisisGuard(client llm.Client, logger logging.Logger) *CrisisGuard {
	return &CrisisGuard{client: client, logger: logging.OrNop(logger)}
}

// Assess never returns an error: on a keyword hit with an unusable
// confirmation it returns a low-confidence positive, because a false
// negative is unacceptable here.
func (g *CrisisGuard) Assess(ctx context.Context, text string) CrisisAssessment {
	if !crisisPattern.MatchString(text) {
		return CrisisAssessment{IsCrisis: false, Confidence: 1.0}
	}

	if g.client == nil {
		return CrisisAssessment{IsCrisis: true, Confidence: 0.5}
	}

	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: crisisClassifierPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		g.logger.Warn("crisis confirmation call failed, failing safe: %v", err)
		return CrisisAssessment{IsCrisis: true, Confidence: 0.5}
	}

	assessment, ok := parseCrisisAssessment(resp.Content)
	if !ok {
		g.logger.Warn("crisis confirmation output unparsable, failing safe")
		return CrisisAssessment{IsCrisis: true, Confidence: 0.5}
	}
	return assessment
}

func parseCrisisAssessment(content string) (CrisisAssessment, bool) {
	var assessment CrisisAssessment
	if err := json.Unmarshal([]byte(content), &assessment); err == nil {
		return assessment, true
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return CrisisAssessment{}, false
	}
	if err := json.Unmarshal([]byte(repaired), &assessment); err != nil {
		return CrisisAssessment{}, false
	}
	return assessment, true
}
