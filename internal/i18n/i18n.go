// Package i18n holds the localized message and quick-reply tables for the
// deterministic side of the dialogue: greetings, gate questions, guardrail
// responses. Spanish is the primary locale; unknown locales fall back to it.
package i18n

import (
	"fmt"
	"strings"
)

// QuickReply is one tappable suggestion shown under an assistant message.
// Value is what the client sends back when tapped, which may be a control
// command.
type QuickReply struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// Normalize maps any locale string to a supported table key.
func Normalize(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return "en"
	}
	return "es"
}

type table struct {
	greeting              string
	askFeeling            string
	askTimeVariations     []string
	askTimePreTimer       string
	crisis                string
	restart               string
	strategyAccepted      string // format args: strategy name, minutes
	strategyRejectedRetry string
	strategyRedirect      string
	fallbackError         string

	greetingReplies []QuickReply
	durationReplies []QuickReply
	preTimerReplies []QuickReply
	retryReplies    []QuickReply
	acceptReject    []QuickReply
}

var tables = map[string]*table{
	"es": {
		greeting:   "Hola, soy Flou, tu asistente Task-Motivation. 😊 Para empezar, ¿por qué no me dices cómo está tu motivación hoy?",
		askFeeling: "Te escucho. 💜 Antes de empezar, cuéntame: ¿cómo te sientes ahora mismo? Así puedo orientarte mejor.",
		askTimeVariations: []string{
			"¡Me encanta que tengas eso claro! ⏱ Para armar algo que realmente funcione, **¿cuánto tiempo tienes disponible ahora mismo?**",
			"Entendido. 🕒 Para ajustar la estrategia a tu agenda, **¿de cuánto tiempo dispones en este momento?**",
			"¡Bien! Vamos a aterrizar esto. ⏳ **¿Cuántos minutos tienes libres para dedicarle a esto ahora?**",
			"Perfecto. Para ser realistas con el plan, **¿con cuánto tiempo cuentas ahora mismo?**",
		},
		askTimePreTimer:       "¡Me parece excelente! 🚀 Una última cosa para configurar tu sesión: **¿Cuánto tiempo tienes disponible ahora mismo?**",
		crisis:                "Escucho que estás en un momento muy difícil. Por favor, busca apoyo inmediato: **llama al 4141** (línea gratuita y confidencial del MINSAL). No estás sola/o.",
		restart:               "¡Perfecto! Empecemos de nuevo. 🔄\n\n¿Cómo está tu motivación hoy?",
		strategyAccepted:      "¡Genial! 🎯 Vamos con **%s**. Tu timer de %d minutos ya está corriendo. ¡Tú puedes! 💪",
		strategyRejectedRetry: "Sin problema, busquemos otra opción. 🔄 ¿Hay algo en particular que te gustaría probar diferente?",
		strategyRedirect:      "Entiendo que no hemos encontrado la estrategia ideal todavía. 🧘 A veces lo mejor es tomarse un momento para relajarse antes de volver al trabajo. Te recomiendo probar un ejercicio de bienestar. ¡Después volvemos con todo! 💜",
		fallbackError:         "Disculpa, tuve un momento de desconexión. 🌀 ¿Puedes repetirme lo último?",
		greetingReplies: []QuickReply{
			{Label: "😑 Aburrido/a", Value: "Me siento aburrido"},
			{Label: "😤 Frustrado/a", Value: "Me siento frustrado"},
			{Label: "😰 Ansioso/a", Value: "Tengo ansiedad"},
			{Label: "🌀 Distraído/a", Value: "Estoy distraído"},
		},
		durationReplies: []QuickReply{
			{Label: "⚡ 10 min", Value: "Tengo 10 minutos", Icon: "⚡", Color: "mint"},
			{Label: "⏰ 15 min", Value: "Tengo 15 minutos", Icon: "⏰", Color: "sky"},
			{Label: "🕐 25 min", Value: "Tengo 25 minutos", Icon: "🕐", Color: "lavender"},
			{Label: "🕑 45 min", Value: "Tengo 45 minutos", Icon: "🕑", Color: "lavender"},
		},
		preTimerReplies: []QuickReply{
			{Label: "15 min (Sprint)", Value: "__set_time_15__", Icon: "⚡", Color: "orange"},
			{Label: "25 min (Pomodoro)", Value: "__set_time_25__", Icon: "🍅", Color: "red"},
			{Label: "45 min (Foco)", Value: "__set_time_45__", Icon: "🧠", Color: "indigo"},
			{Label: "1h+", Value: "__set_time_60__", Icon: "⌛", Color: "purple"},
		},
		retryReplies: []QuickReply{
			{Label: "🔄 Sorpréndeme", Value: "Quiero otra estrategia diferente"},
			{Label: "⏱ Tengo poco tiempo", Value: "Dame algo rápido de hacer"},
			{Label: "🧘 Algo relajado", Value: "Quiero algo tranquilo"},
		},
		acceptReject: []QuickReply{
			{Label: "✅ Empezar", Value: "__accept_strategy__", Icon: "✅", Color: "mint"},
			{Label: "🔄 Otra opción", Value: "__reject_strategy__", Icon: "🔄", Color: "sky"},
		},
	},
	"en": {
		greeting:   "Hi, I'm Flou, your Task-Motivation assistant. 😊 To start, why don't you tell me how your motivation is today?",
		askFeeling: "I hear you. 💜 Before we start, tell me: how are you feeling right now? That helps me guide you better.",
		askTimeVariations: []string{
			"Love that you're clear on that! ⏱ To build something that really works, **how much time do you have available right now?**",
			"Got it. 🕒 To fit the strategy to your schedule, **how much time can you spare at this moment?**",
			"Great! Let's make this actionable. ⏳ **How many minutes do you have free to dedicate to this now?**",
			"Perfect. To be realistic with the plan, **how much time are you working with right now?**",
		},
		askTimePreTimer:       "Sounds excellent! 🚀 One last thing to set up your session: **How much time do you have available right now?**",
		crisis:                "I hear you're going through a very difficult time. Please seek immediate support. You are not alone.",
		restart:               "Perfect! Let's start over. 🔄\n\nHow is your motivation today?",
		strategyAccepted:      "Awesome! 🎯 Let's go with **%s**. Your %d minute timer is running. You got this! 💪",
		strategyRejectedRetry: "No problem, let's find another option. 🔄 Is there anything specific you'd like to try differently?",
		strategyRedirect:      "I understand we haven't found the ideal strategy yet. 🧘 Sometimes the best thing is to take a moment to relax before getting back to work. I recommend trying a wellness exercise. We'll come back stronger! 💜",
		fallbackError:         "Sorry, I had a disconnection moment. 🌀 Can you repeat that last part?",
		greetingReplies: []QuickReply{
			{Label: "😑 Bored", Value: "I feel bored"},
			{Label: "😤 Frustrated", Value: "I feel frustrated"},
			{Label: "😰 Anxious", Value: "I feel anxious"},
			{Label: "🌀 Distracted", Value: "I am distracted"},
		},
		durationReplies: []QuickReply{
			{Label: "⚡ 10 min", Value: "I have 10 minutes", Icon: "⚡", Color: "mint"},
			{Label: "⏰ 15 min", Value: "I have 15 minutes", Icon: "⏰", Color: "sky"},
			{Label: "🕐 25 min", Value: "I have 25 minutes", Icon: "🕐", Color: "lavender"},
			{Label: "🕑 45 min", Value: "I have 45 minutes", Icon: "🕑", Color: "lavender"},
		},
		preTimerReplies: []QuickReply{
			{Label: "15 min (Sprint)", Value: "__set_time_15__", Icon: "⚡", Color: "orange"},
			{Label: "25 min (Pomodoro)", Value: "__set_time_25__", Icon: "🍅", Color: "red"},
			{Label: "45 min (Focus)", Value: "__set_time_45__", Icon: "🧠", Color: "indigo"},
			{Label: "1h+", Value: "__set_time_60__", Icon: "⌛", Color: "purple"},
		},
		retryReplies: []QuickReply{
			{Label: "🔄 Surprise me", Value: "I want a different strategy"},
			{Label: "⏱ Short on time", Value: "Give me something quick"},
			{Label: "🧘 Something relaxed", Value: "I want something chill"},
		},
		acceptReject: []QuickReply{
			{Label: "✅ Start", Value: "__accept_strategy__", Icon: "✅", Color: "mint"},
			{Label: "🔄 Other option", Value: "__reject_strategy__", Icon: "🔄", Color: "sky"},
		},
	},
}

func forLocale(locale string) *table {
	return tables[Normalize(locale)]
}

// Greeting is the first-contact message.
func Greeting(locale string) string { return forLocale(locale).greeting }

// AskFeeling asks for the user's current feeling (onboarding gate).
func AskFeeling(locale string) string { return forLocale(locale).askFeeling }

// AskTime returns one of the time-budget question variations. The seed picks
// the variation deterministically (callers typically pass the iteration).
func AskTime(locale string, seed int) string {
	variations := forLocale(locale).askTimeVariations
	if seed < 0 {
		seed = -seed
	}
	return variations[seed%len(variations)]
}

// AskTimePreTimer is the time question asked when a strategy is accepted
// without a usable time budget.
func AskTimePreTimer(locale string) string { return forLocale(locale).askTimePreTimer }

// CrisisMessage is the fixed safety response.
func CrisisMessage(locale string) string { return forLocale(locale).crisis }

// RestartMessage confirms a session reset.
func RestartMessage(locale string) string { return forLocale(locale).restart }

// StrategyAccepted confirms the accepted strategy and its timer.
func StrategyAccepted(locale, strategyName string, minutes int) string {
	return fmt.Sprintf(forLocale(locale).strategyAccepted, strategyName, minutes)
}

// StrategyRejectedRetry invites a different preference after a rejection
// below the redirect threshold.
func StrategyRejectedRetry(locale string) string { return forLocale(locale).strategyRejectedRetry }

// StrategyRedirect is the message sent when repeated rejections redirect the
// user out of the strategy flow.
func StrategyRedirect(locale string) string { return forLocale(locale).strategyRedirect }

// FallbackError is the user-facing text substituted when generation fails in
// free conversation.
func FallbackError(locale string) string { return forLocale(locale).fallbackError }

// GreetingQuickReplies are the feeling suggestions shown with greetings and
// the feeling gate.
func GreetingQuickReplies(locale string) []QuickReply { return forLocale(locale).greetingReplies }

// DurationQuickReplies are the four duration choices for the time gate.
func DurationQuickReplies(locale string) []QuickReply { return forLocale(locale).durationReplies }

// PreTimerQuickReplies are the duration choices offered when accepting a
// strategy without a time budget; their values are set-time commands.
func PreTimerQuickReplies(locale string) []QuickReply { return forLocale(locale).preTimerReplies }

// RetryQuickReplies are the preference suggestions after a strategy
// rejection below the threshold.
func RetryQuickReplies(locale string) []QuickReply { return forLocale(locale).retryReplies }

// AcceptRejectQuickReplies accompany every strategy proposal.
func AcceptRejectQuickReplies(locale string) []QuickReply { return forLocale(locale).acceptReject }
