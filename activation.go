package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// descriptionTrim is stripped from both ends of a description left after the
// activation keyword is removed.
const descriptionTrim = " \t\r\n,.:;!?，。：；！？、"

// activator decides whether a chat message should run an action and pulls the
// description out of it.
type activator struct {
	info     ActionInfo
	keywords []*regexp.Regexp
	llm      promptLLM
	model    string
}

func newActivator(info ActionInfo, llm promptLLM, model string) *activator {
	flags := "(?i)"
	if info.KeywordCaseSensitive {
		flags = ""
	}
	keywords := make([]*regexp.Regexp, 0, len(info.ActivationKeywords))
	for _, kw := range info.ActivationKeywords {
		keywords = append(keywords, regexp.MustCompile(flags+keywordPattern(kw)))
	}
	return &activator{info: info, keywords: keywords, llm: llm, model: model}
}

// keywordPattern anchors the ends of kw that are ASCII word characters to word
// boundaries, so "draw" does not fire inside "withdraw". Other scripts (CJK)
// have no word boundaries and match anywhere.
func keywordPattern(kw string) string {
	pattern := regexp.QuoteMeta(kw)
	if kw == "" {
		return pattern
	}
	if isASCIIWordByte(kw[0]) {
		pattern = `\b` + pattern
	}
	if isASCIIWordByte(kw[len(kw)-1]) {
		pattern += `\b`
	}
	return pattern
}

func isASCIIWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Activate applies the activation type configured for mode.
func (a *activator) Activate(ctx context.Context, mode ChatMode, text string) (string, bool) {
	activation := a.info.NormalActivation
	if mode == ChatModeFocus {
		activation = a.info.FocusActivation
	}

	switch activation {
	case ActivationKeyword:
		return a.matchKeyword(text)
	case ActivationLLMJudge:
		if a.llm == nil {
			return a.matchKeyword(text)
		}
		return a.judge(ctx, text)
	}
	return "", false
}

// matchKeyword reports whether text contains an activation keyword and returns
// the text without it.
func (a *activator) matchKeyword(text string) (string, bool) {
	for _, re := range a.keywords {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		description := strings.Trim(text[:loc[0]], descriptionTrim) + " " + strings.Trim(text[loc[1]:], descriptionTrim)
		return strings.TrimSpace(description), true
	}
	return "", false
}

func (a *activator) judge(ctx context.Context, text string) (string, bool) {
	answer, err := a.llm.Complete(ctx, a.model, a.judgePrompt(text))
	if err != nil {
		log.Warn().Err(err).Str("action", a.info.Name).Msg("Activation judge failed")
		return "", false
	}
	description, ok := parseJudgeAnswer(answer)
	if ok && description == "" {
		description = text
	}
	log.Debug().Str("action", a.info.Name).Bool("activated", ok).Msg("Activation judge answered")
	return description, ok
}

func (a *activator) judgePrompt(text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You decide whether a chat bot should run the action %q: %s.\n\n", a.info.Name, a.info.Description)
	b.WriteString(strings.TrimSpace(a.info.LLMJudgePrompt))
	b.WriteString("\n\nAction usage:\n")
	for _, r := range a.info.Require {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\nParameters:\n")
	for name, desc := range a.info.Parameters {
		fmt.Fprintf(&b, "- %s: %s\n", name, desc)
	}
	fmt.Fprintf(&b, "\nUser message:\n%s\n\n", text)
	b.WriteString(`Answer with one line only: "YES: <description>" to run the action, or "NO".`)
	return b.String()
}

// parseJudgeAnswer reads "YES: <description>" or "NO".
func parseJudgeAnswer(answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if len(answer) < 3 || !strings.EqualFold(answer[:3], "YES") {
		return "", false
	}
	rest := answer[3:]
	// "YES" must stand alone: "Yesterday" or "Yes, but" is not an answer.
	if rest != "" && !strings.ContainsAny(rest[:1], ":- \t\r\n") && !strings.HasPrefix(rest, "：") {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimLeft(rest, ":：-"))
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest), true
}
