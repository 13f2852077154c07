// Package assistant answers free-text incident questions by grounding them
// with retrieved legal context and forwarding them to a generative oracle.
package assistant

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"firdesk/internal/logging"
	"firdesk/internal/retrieval"
	"firdesk/internal/services"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Reply outcomes, also used as metric labels
const (
	OutcomeOK       = "ok"
	OutcomeDraft    = "draft"
	OutcomeFallback = "fallback"
)

// ErrNoOracle is reported when no oracle is configured
var ErrNoOracle = errors.New("no oracle configured")

// Options tunes oracle access
type Options struct {
	Timeout       time.Duration
	RatePerSecond float64 // <= 0 disables rate limiting
}

// Answer is the result of one assistant query
type Answer struct {
	Reply   string
	Profile string
	Context string // rule that supplied the snippet
	Outcome string
}

// Assistant builds augmented prompts and calls the oracle
type Assistant struct {
	kb      *retrieval.KnowledgeBase
	oracle  Oracle
	limiter *rate.Limiter
	timeout time.Duration
	metrics *services.Metrics
}

// New creates an assistant. oracle may be nil, in which case every query gets
// the profile's fallback reply.
func New(kb *retrieval.KnowledgeBase, oracle Oracle, opts Options) *Assistant {
	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		if opts.RatePerSecond > 1 {
			burst = int(opts.RatePerSecond)
		}
	}

	return &Assistant{
		kb:      kb,
		oracle:  oracle,
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.Timeout,
	}
}

// SetMetrics counts queries and oracle latency on m
func (a *Assistant) SetMetrics(m *services.Metrics) {
	a.metrics = m
}

// HasOracle reports whether an oracle is configured
func (a *Assistant) HasOracle() bool {
	return a.oracle != nil
}

// Profile resolves a profile name; empty selects the default
func (a *Assistant) Profile(name string) (*retrieval.Profile, bool) {
	return a.kb.Profile(name)
}

// Ask retrieves context for text, queries the oracle and returns the cleaned
// reply. It never fails: any oracle fault yields the profile's fallback reply.
func (a *Assistant) Ask(ctx context.Context, profile *retrieval.Profile, text string) Answer {
	snippet := profile.Retrieve(text)
	answer := Answer{
		Profile: profile.Name,
		Context: snippet.Rule,
	}

	completion, err := a.complete(ctx, Request{
		Prompt:    BuildPrompt(profile, snippet, text),
		DraftTool: profile.DraftTool,
	})
	switch {
	case err != nil:
		logging.WithAssistant(uuid.New().String(), profile.Name).Warn("assistant query fell back",
			"context", snippet.Rule,
			"error", err,
		)
		answer.Reply = profile.FallbackReply
		answer.Outcome = OutcomeFallback
	case completion.Drafted:
		answer.Reply = DraftTemplate(completion.Incident)
		answer.Outcome = OutcomeDraft
	default:
		answer.Reply = StripMarkdown(completion.Text)
		answer.Outcome = OutcomeOK
	}

	a.metrics.RecordAssistantRequest(answer.Profile, answer.Outcome)
	return answer
}

func (a *Assistant) complete(ctx context.Context, req Request) (completion Completion, err error) {
	if a.oracle == nil {
		return Completion{}, ErrNoOracle
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [ASSISTANT] Oracle panicked: %v", r)
			completion, err = Completion{}, errors.New("oracle panicked")
		}
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return Completion{}, err
	}

	start := time.Now()
	completion, err = a.oracle.Complete(ctx, req)
	a.metrics.RecordOracleLatency(time.Since(start).Seconds())
	return completion, err
}

// BuildPrompt frames the question with the profile preamble and the snippet
func BuildPrompt(profile *retrieval.Profile, snippet retrieval.Snippet, text string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(profile.Preamble))
	b.WriteString("\n\n")
	b.WriteString(profile.ContextHeader)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(snippet.Text))
	b.WriteString("\n\n")
	b.WriteString(profile.QuestionHeader)
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")

	if closing := strings.TrimSpace(profile.Closing); closing != "" {
		b.WriteString("\n")
		b.WriteString(closing)
		b.WriteString("\n")
	}
	return b.String()
}

var markdownTokens = strings.NewReplacer(
	"**", "",
	"__", "",
	"#", "",
	"*", "",
	"_", "",
	"`", "",
)

// StripMarkdown removes the emphasis, heading and code markers the model likes
// to emit: "**", "__", then any single '#', '*', '_' or '`'.
func StripMarkdown(text string) string {
	return markdownTokens.Replace(text)
}

// DraftTemplate wraps an incident description in the FIR draft reply
func DraftTemplate(incident string) string {
	return "Here is a simple FIR draft for your reference.\n\n" +
		strings.TrimSpace(incident) +
		"\n\nPlease note:\nThis draft is for informational purposes only.\n" +
		"You may modify it before submitting it at the police station."
}
