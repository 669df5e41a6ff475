package dialogue

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"flou/internal/llm"
	"flou/internal/logging"
	"flou/internal/session"
)

// Extractor turns free text into slots. The returned slots are the merged
// view: a field is the newly observed value or the current one, never blank
// where the current one was known.
type Extractor interface {
	Extract(ctx context.Context, text string, current session.Slots) session.Slots
}

// Field matchers run in a fixed priority order; the first match wins.
var (
	deadlineToday    = regexp.MustCompile(`hoy|ahora|en el día|para la noche|today|tonight`)
	deadline24h      = regexp.MustCompile(`mañana|24\s*h|en un día|tomorrow`)
	deadlineThisWeek = regexp.MustCompile(`próxima semana|la otra semana|esta semana|en estos días|antes del finde|this week`)
	deadlineOverWeek = regexp.MustCompile(`mes|semanas|>\s*1|próximo mes|largo plazo|next month|long term`)

	taskEssay        = regexp.MustCompile(`ensayo|essay|informe|reporte|escrito`)
	taskOutline      = regexp.MustCompile(`esquema|outline|mapa conceptual|diagrama`)
	taskDraft        = regexp.MustCompile(`borrador|draft|avance`)
	taskPresentation = regexp.MustCompile(`presentaci(ón|on)|slides|powerpoint|discurso`)
	taskProofreading = regexp.MustCompile(`proof|corregir|correcci(ón|on)|edita(r|ción)|feedback`)
	taskMCQ          = regexp.MustCompile(`mcq|alternativa(s)?|test|prueba|examen|quiz`)
	taskLabProtocol  = regexp.MustCompile(`protocolo|laboratorio|lab`)
	taskProblems     = regexp.MustCompile(`problema(s)?|ejercicio(s)?|cálculo|guía`)
	taskReading      = regexp.MustCompile(`lectura|paper|art[ií]culo|leer|texto`)
	taskSummary      = regexp.MustCompile(`resumen|sintetizar|síntesis|summary`)
	taskCoding       = regexp.MustCompile(`c(ó|o)digo|programar|coding|script`)
	taskBug          = regexp.MustCompile(`bug|error|debug`)

	phaseIdeation  = regexp.MustCompile(`ide(a|ación)|brainstorm|empezando|inicio|hoja en blanco|blank page`)
	phasePlanning  = regexp.MustCompile(`plan|organizar|estructura`)
	phaseExecution = regexp.MustCompile(`escribir|redacci(ón|on)|hacer|resolver|desarrollar|avanzando|writing`)
	phaseRevision  = regexp.MustCompile(`revis(ar|ión)|editar|proof|corregir|finalizando|últimos detalles|review`)

	feelingFrustration = regexp.MustCompile(`frustra|enojado|molesto|rabia|irritado|impotencia|bloqueado|estancado|frustrated|stuck`)
	feelingAnxiety     = regexp.MustCompile(`ansiedad|miedo a equivocarme|nervios|preocupado|estresado|tenso|pánico|abrumado|agobiado|anxious|stressed|overwhelmed`)
	feelingBoredom     = regexp.MustCompile(`aburri|lata|paja|sin ganas|monótono|repetitivo|tedioso|desinterés|bored`)
	feelingRumination  = regexp.MustCompile(`dispers|distraído|rumi|dando vueltas|no me concentro|mente en blanco|divago|perdido|distracted|can't focus`)
	feelingLowEfficacy = regexp.MustCompile(`autoeficacia baja|no puedo|no soy capaz|difícil|superado|inseguro|incapaz|no lo voy a lograr|i can't do`)

	minutesWithUnit = regexp.MustCompile(`(\d{1,3})\s*(?:min(?:utos?)?|minutes?)\b`)
	bareMinutes     = regexp.MustCompile(`\b(10|12|15|20|25|30|45|60|90)\b`)
)

var minuteWords = []struct {
	pattern *regexp.Regexp
	minutes int
}{
	{regexp.MustCompile(`\bdiez\b|\bten\b`), 10},
	{regexp.MustCompile(`\bdoce\b|\btwelve\b`), 12},
	{regexp.MustCompile(`\bquince\b|\bfifteen\b`), 15},
	{regexp.MustCompile(`\bveinticinco\b|\btwenty.?five\b`), 25},
	{regexp.MustCompile(`media hora|half an hour`), 30},
	{regexp.MustCompile(`cuarenta y cinco|\bforty.?five\b`), 45},
	{regexp.MustCompile(`una hora|\ban hour\b|\bone hour\b`), 60},
}

func guessDeadline(text string) string {
	switch {
	case deadlineToday.MatchString(text):
		return session.DeadlineToday
	case deadline24h.MatchString(text):
		return session.DeadlineUnder24h
	case deadlineThisWeek.MatchString(text):
		return session.DeadlineThisWeek
	case deadlineOverWeek.MatchString(text):
		return session.DeadlineOverWeek
	}
	return ""
}

func guessTaskType(text string) string {
	switch {
	case taskEssay.MatchString(text):
		return session.TaskEssay
	case taskOutline.MatchString(text):
		return session.TaskOutline
	case taskDraft.MatchString(text):
		return session.TaskDraft
	case taskPresentation.MatchString(text):
		return session.TaskPresentation
	case taskProofreading.MatchString(text):
		return session.TaskProofreading
	case taskMCQ.MatchString(text):
		return session.TaskMultipleChoicePrep
	case taskLabProtocol.MatchString(text):
		return session.TaskLabProtocol
	case taskProblems.MatchString(text):
		return session.TaskProblemSolving
	case taskReading.MatchString(text):
		return session.TaskTechnicalReading
	case taskSummary.MatchString(text):
		return session.TaskSummary
	case taskCoding.MatchString(text) && !taskBug.MatchString(text):
		return session.TaskCoding
	case taskBug.MatchString(text):
		return session.TaskBugfix
	}
	return ""
}

func guessPhase(text string) string {
	switch {
	case phaseIdeation.MatchString(text):
		return session.PhaseIdeation
	case phasePlanning.MatchString(text):
		return session.PhasePlanning
	case phaseExecution.MatchString(text):
		return session.PhaseExecution
	case phaseRevision.MatchString(text):
		return session.PhaseRevision
	}
	return ""
}

func guessFeeling(text string) string {
	switch {
	case feelingFrustration.MatchString(text):
		return session.FeelingFrustration
	case feelingAnxiety.MatchString(text):
		return session.FeelingAnxiety
	case feelingBoredom.MatchString(text):
		return session.FeelingBoredom
	case feelingRumination.MatchString(text):
		return session.FeelingRumination
	case feelingLowEfficacy.MatchString(text):
		return session.FeelingLowSelfEfficacy
	}
	return ""
}

// guessMinutes requires an explicit numeric cue: a number with a minutes
// unit, a known number word, or a bare duration-looking number. Ambiguity
// never produces a value.
func guessMinutes(text string) int {
	if m := minutesWithUnit.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	for _, w := range minuteWords {
		if w.pattern.MatchString(text) {
			return w.minutes
		}
	}
	if m := bareMinutes.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// HeuristicExtractor is the zero-dependency extraction path: independent
// pattern matchers per field against the lower-cased input.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(_ context.Context, text string, current session.Slots) session.Slots {
	lower := strings.ToLower(text)
	return current.Merge(session.Slots{
		Feeling:              guessFeeling(lower),
		TaskType:             guessTaskType(lower),
		Deadline:             guessDeadline(lower),
		Phase:                guessPhase(lower),
		TimeAvailableMinutes: guessMinutes(lower),
	})
}

// LLMExtractor sends the text plus current slots to the Generator in JSON
// mode. Any failure, including malformed output, degrades to the heuristic
// extractor so the turn never fails.
type LLMExtractor struct {
	client    llm.Client
	heuristic HeuristicExtractor
	logger    logging.Logger
}

// NewLLMExtractor builds the model-assisted extraction path.
func NewLLMExtractor(client llm.Client, logger logging.Logger) *LLMExtractor {
	return &LLMExtractor{client: client, logger: logging.OrNop(logger)}
}

type extractedSlots struct {
	Feeling              string `json:"feeling"`
	FeelingDetail        string `json:"feeling_detail"`
	TaskType             string `json:"task_type"`
	Subject              string `json:"subject"`
	Deadline             string `json:"deadline"`
	Phase                string `json:"work_phase"`
	TimeAvailableMinutes int    `json:"time_available_minutes"`
}

func (e *LLMExtractor) Extract(ctx context.Context, text string, current session.Slots) session.Slots {
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return e.heuristic.Extract(ctx, text, current)
	}

	resp, err := e.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: slotExtractionPrompt},
			{Role: "user", Content: "Texto: \"" + text + "\"\nSlots actuales: " + string(currentJSON)},
		},
		Temperature: 0.1,
		MaxTokens:   200,
		JSONMode:    true,
	})
	if err != nil {
		e.logger.Warn("slot extraction call failed, using heuristics: %v", err)
		return e.heuristic.Extract(ctx, text, current)
	}

	parsed, ok := parseExtractedSlots(resp.Content)
	if !ok {
		e.logger.Warn("slot extraction output unparsable, using heuristics")
		return e.heuristic.Extract(ctx, text, current)
	}

	// The numeric field must come from an explicit cue in the text itself,
	// not from model inference.
	minutes := parsed.TimeAvailableMinutes
	if minutes > 0 && guessMinutes(strings.ToLower(text)) == 0 {
		minutes = 0
	}

	return current.Merge(session.Slots{
		Feeling:              normalizeTag(parsed.Feeling, validFeelings),
		FeelingDetail:        parsed.FeelingDetail,
		TaskType:             normalizeTag(parsed.TaskType, validTaskTypes),
		Subject:              parsed.Subject,
		Deadline:             normalizeTag(parsed.Deadline, validDeadlines),
		Phase:                normalizeTag(parsed.Phase, validPhases),
		TimeAvailableMinutes: minutes,
	})
}

func parseExtractedSlots(content string) (extractedSlots, bool) {
	var parsed extractedSlots
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return parsed, true
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return extractedSlots{}, false
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return extractedSlots{}, false
	}
	return parsed, true
}

var (
	validFeelings = map[string]bool{
		session.FeelingFrustration: true, session.FeelingAnxiety: true,
		session.FeelingBoredom: true, session.FeelingRumination: true,
		session.FeelingLowSelfEfficacy: true, session.FeelingNeutral: true,
		session.FeelingPositive: true, session.FeelingOther: true,
	}
	validTaskTypes = map[string]bool{
		session.TaskEssay: true, session.TaskOutline: true, session.TaskDraft: true,
		session.TaskTechnicalReading: true, session.TaskSummary: true,
		session.TaskProblemSolving: true, session.TaskLabProtocol: true,
		session.TaskMultipleChoicePrep: true, session.TaskPresentation: true,
		session.TaskCoding: true, session.TaskBugfix: true,
		session.TaskProofreading: true, session.TaskProject: true, session.TaskOther: true,
	}
	validDeadlines = map[string]bool{
		session.DeadlineToday: true, session.DeadlineUnder24h: true,
		session.DeadlineThisWeek: true, session.DeadlineOverWeek: true,
	}
	validPhases = map[string]bool{
		session.PhaseIdeation: true, session.PhasePlanning: true,
		session.PhaseExecution: true, session.PhaseRevision: true,
	}
)

// normalizeTag drops values outside the valid vocabulary rather than letting
// a hallucinated tag pollute the session.
func normalizeTag(value string, valid map[string]bool) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if valid[value] {
		return value
	}
	return ""
}
