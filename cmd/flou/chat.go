package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"flou/internal/config"
	"flou/internal/dialogue"
	"flou/internal/i18n"
	"flou/internal/llm"
	"flou/internal/logging"
	"flou/internal/session"
)

var (
	assistantName = color.New(color.FgCyan, color.Bold).SprintFunc()
	hintText      = color.New(color.FgHiBlack).SprintFunc()
	alertText     = color.New(color.FgRed, color.Bold).SprintFunc()
	timerText     = color.New(color.FgYellow).SprintFunc()
)

var chatFlags struct {
	locale string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the coach in the terminal",
	Long: `Chat runs a local conversation loop against the configured LLM
provider, streaming the coach's replies to the terminal. Quick replies
are shown as numbered options; type the number or free text. Type
"salir" or press Ctrl+C to leave.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatFlags.locale, "locale", "", "conversation locale, \"es\" or \"en\" (overrides config)")
}

// chatLoop holds the REPL state: the session, the rolling message history
// and the quick replies offered by the previous turn.
type chatLoop struct {
	orchestrator *dialogue.Orchestrator
	state        *session.State
	locale       string
	history      []llm.Message
	quickReplies []i18n.QuickReply
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	locale := cfg.Locale.Default
	if chatFlags.locale != "" {
		locale = chatFlags.locale
	}

	logging.SetLevel(logging.ParseLevel(cfg.Log.Level))
	logger := logging.NewComponentLogger("chat")

	deps, err := buildDeps(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	loop := &chatLoop{
		orchestrator: deps.Orchestrator,
		state:        session.New("", "local"),
		locale:       i18n.Normalize(locale),
	}

	fmt.Printf("%s (%s)\n\n", assistantName("flou"), deps.Client.Model())
	if err := loop.turn(cmd.Context(), dialogue.CommandGreeting); err != nil {
		return err
	}

	prompt := promptui.Prompt{Label: loop.userLabel()}
	for {
		input, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, io.EOF) {
			fmt.Println(hintText("hasta luego"))
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if isQuitWord(input) {
			fmt.Println(hintText("hasta luego"))
			return nil
		}

		if err := loop.turn(cmd.Context(), loop.resolveInput(input)); err != nil {
			return err
		}
	}
}

func (l *chatLoop) userLabel() string {
	if l.locale == "en" {
		return "you"
	}
	return "tú"
}

func isQuitWord(input string) bool {
	switch strings.ToLower(input) {
	case "salir", "exit", "quit":
		return true
	}
	return false
}

// resolveInput maps a quick-reply number to its command value. Anything else
// passes through as free text.
func (l *chatLoop) resolveInput(input string) string {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(l.quickReplies) {
		return input
	}
	return l.quickReplies[n-1].Value
}

// turn sends one message through the streaming surface and renders the
// events as they arrive.
func (l *chatLoop) turn(ctx context.Context, text string) error {
	fmt.Printf("%s ", assistantName("flou:"))

	var (
		reply        string
		quickReplies []i18n.QuickReply
		metadata     dialogue.TurnMetadata
		failed       bool
	)

	for event := range l.orchestrator.HandleTurnStream(ctx, l.state, dialogue.TurnInput{
		Text:    text,
		Locale:  l.locale,
		History: l.history,
	}) {
		switch event.Type {
		case dialogue.EventToken:
			if data, ok := event.Data.(map[string]string); ok {
				fmt.Print(data["text"])
				reply += data["text"]
			}
		case dialogue.EventGuardrail:
			if payload, ok := event.Data.(dialogue.GuardrailPayload); ok {
				if payload.IsCrisis {
					fmt.Println(alertText(payload.Text))
				} else {
					fmt.Println(payload.Text)
				}
				reply = payload.Text
				quickReplies = payload.QuickReplies
			}
		case dialogue.EventQuickReply:
			if replies, ok := event.Data.([]i18n.QuickReply); ok {
				quickReplies = replies
			}
		case dialogue.EventMetadata:
			if m, ok := event.Data.(dialogue.TurnMetadata); ok {
				metadata = m
			}
		case dialogue.EventSessionState:
			if st, ok := event.Data.(*session.State); ok {
				l.state = st
			}
		case dialogue.EventError:
			failed = true
		case dialogue.EventDone:
			fmt.Println()
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if failed {
		fmt.Println(hintText("(respuesta de reserva)"))
	}
	if metadata.TimerConfig != nil {
		fmt.Println(timerText(fmt.Sprintf("⏱ %d min: %s",
			metadata.TimerConfig.DurationMinutes, metadata.TimerConfig.Label)))
	}

	l.quickReplies = quickReplies
	for i, qr := range quickReplies {
		fmt.Println(hintText(fmt.Sprintf("  [%d] %s", i+1, qr.Label)))
	}
	fmt.Println()

	if !strings.HasPrefix(text, "__") {
		l.history = append(l.history, llm.Message{Role: "user", Content: text})
	}
	if reply != "" {
		l.history = append(l.history, llm.Message{Role: "assistant", Content: reply})
	}
	if len(l.history) > 4*dialogue.HistoryWindow {
		l.history = l.history[len(l.history)-2*dialogue.HistoryWindow:]
	}
	return nil
}
