// Package command classifies inbound chat text into the bot's commands.
//
// Rules are checked in priority order and the first match wins:
// prompt (".tao" prefix), broadcast (".tagall" anywhere), translate
// ("translate to" anywhere), otherwise no-op.
package command

import "strings"

type Kind int

const (
	KindNoOp Kind = iota
	KindPrompt
	KindPromptUsage
	KindBroadcast
	KindTranslate
	KindTranslateUsage
)

func (k Kind) String() string {
	switch k {
	case KindPrompt:
		return "prompt"
	case KindPromptUsage:
		return "prompt_usage"
	case KindBroadcast:
		return "broadcast"
	case KindTranslate:
		return "translate"
	case KindTranslateUsage:
		return "translate_usage"
	default:
		return "noop"
	}
}

const (
	PromptPrefix     = ".tao"
	BroadcastKeyword = ".tagall"
	TranslateKeyword = "translate to"

	DefaultLanguage = "en"
)

const (
	PromptUsageText    = "Please provide a prompt after the .tao command."
	TranslateUsageText = "Please provide the text to translate before \"translate to <language>\"."
	GroupOnlyText      = "The .tagall command can only be used in group chats."
)

type Command struct {
	Kind Kind
	// Text is the prompt (KindPrompt) or the source text (KindTranslate).
	Text string
	// Language is the translation target; empty means DefaultLanguage.
	Language string
}

type rule func(body, lower string) (Command, bool)

var rules = []rule{
	matchPrompt,
	matchBroadcast,
	matchTranslate,
}

func Classify(body string) Command {
	lower := strings.ToLower(body)
	for _, r := range rules {
		if cmd, ok := r(body, lower); ok {
			return cmd
		}
	}
	return Command{Kind: KindNoOp}
}

func matchPrompt(body, _ string) (Command, bool) {
	if len(body) < len(PromptPrefix) || !strings.EqualFold(body[:len(PromptPrefix)], PromptPrefix) {
		return Command{}, false
	}
	// The prompt keeps the sender's casing.
	prompt := strings.TrimSpace(body[len(PromptPrefix):])
	if prompt == "" {
		return Command{Kind: KindPromptUsage}, true
	}
	return Command{Kind: KindPrompt, Text: prompt, Language: DefaultLanguage}, true
}

func matchBroadcast(_, lower string) (Command, bool) {
	if !strings.Contains(lower, BroadcastKeyword) {
		return Command{}, false
	}
	return Command{Kind: KindBroadcast}, true
}

func matchTranslate(_, lower string) (Command, bool) {
	source, language, ok := SplitTranslate(lower)
	if !ok {
		return Command{}, false
	}
	if source == "" {
		return Command{Kind: KindTranslateUsage}, true
	}
	return Command{Kind: KindTranslate, Text: source, Language: language}, true
}

// SplitTranslate extracts the source text and target language from text
// containing "translate to". The language is whatever follows the first
// occurrence up to the next one. The source is text with the first
// "translate to <language>" removed. The removal is a plain substring
// replace, so a language name that also appears earlier in the text is
// not treated specially.
func SplitTranslate(text string) (source string, language string, ok bool) {
	idx := strings.Index(text, TranslateKeyword)
	if idx < 0 {
		return "", "", false
	}
	rawLanguage := text[idx+len(TranslateKeyword):]
	if next := strings.Index(rawLanguage, TranslateKeyword); next >= 0 {
		rawLanguage = rawLanguage[:next]
	}
	source = strings.Replace(text, TranslateKeyword+rawLanguage, "", 1)
	return strings.TrimSpace(source), strings.TrimSpace(rawLanguage), true
}

// NeedsTranslation reports whether a reply must go through a translation turn.
func NeedsTranslation(language string) bool {
	language = strings.TrimSpace(language)
	return language != "" && language != DefaultLanguage
}
