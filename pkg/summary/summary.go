// Package summary keeps the cached contact summary in step with the
// contact's outgoing edges.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/ai"
	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

// DefaultTokenBudget bounds the facts section of the prompt.
const DefaultTokenBudget = 3000

const defaultAttempts = 2

// Completer is the part of ai.GraphAIClient the regenerator needs.
type Completer interface {
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...ai.GenerateOption,
	) error
}

type summaryResponse struct {
	Summary string `json:"summary" jsonschema:"description=Two or three factual sentences about the contact addressed to the user"`
}

// Regenerator rewrites a contact summary from the facts attached to its
// mirror node. It satisfies graph.SummaryTrigger.
type Regenerator struct {
	store    store.Store
	client   Completer
	count    ai.TokenCounter
	budget   int
	attempts int
	opts     []ai.GenerateOption
}

type Option func(*Regenerator)

// WithTokenCounter replaces the tiktoken based counter.
func WithTokenCounter(c ai.TokenCounter) Option {
	return func(r *Regenerator) {
		if c != nil {
			r.count = c
		}
	}
}

func WithTokenBudget(budget int) Option {
	return func(r *Regenerator) {
		r.budget = budget
	}
}

// WithAttempts sets how often a failed model call is tried in total.
func WithAttempts(n int) Option {
	return func(r *Regenerator) {
		r.attempts = n
	}
}

// WithGenerateOptions forwards options such as the model to every request.
func WithGenerateOptions(opts ...ai.GenerateOption) Option {
	return func(r *Regenerator) {
		r.opts = append(r.opts, opts...)
	}
}

func New(st store.Store, client Completer, opts ...Option) *Regenerator {
	r := &Regenerator{
		store:    st,
		client:   client,
		count:    ai.CountTokens,
		budget:   DefaultTokenBudget,
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Regenerate recomputes the summary of the contact mirrored by mirrorNodeID.
// A contact without facts gets an empty summary and no model call is made.
func (r *Regenerator) Regenerate(ctx context.Context, tenantID, mirrorNodeID uuid.UUID) error {
	var (
		contact common.Contact
		facts   []common.Neighbor
	)
	err := r.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		contact, err = tx.GetContactByNode(ctx, tenantID, mirrorNodeID)
		if err != nil {
			return err
		}
		facts, err = tx.Outgoing(ctx, tenantID, mirrorNodeID)
		return err
	})
	if err != nil {
		return err
	}

	text := ""
	if len(facts) > 0 {
		lines := RenderFacts(facts)
		kept, dropped := ai.TrimLines(lines, r.budget, r.count)
		if dropped > 0 {
			logger.Debug("[Summary] Trimmed facts to token budget", "tenant", tenantID, "contact", contact.ID, "dropped", dropped)
		}
		text, err = util.RetryWithContext(ctx, r.attempts, func(ctx context.Context) (string, error) {
			return r.generate(ctx, kept)
		})
		if err != nil {
			return common.Upstream("regenerate_summary", err)
		}
	}

	return r.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.SetContactSummary(ctx, tenantID, contact.ID, text)
	})
}

func (r *Regenerator) generate(ctx context.Context, lines []string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("no completion client configured")
	}
	prompt := fmt.Sprintf(ai.SummaryPrompt, strings.Join(lines, "\n"))
	opts := append([]ai.GenerateOption{ai.WithSystemPrompts(ai.SummarySystemPrompt)}, r.opts...)

	var res summaryResponse
	if err := r.client.GenerateCompletionWithFormat(
		ctx,
		"contact_summary",
		"A short factual summary of a contact",
		prompt,
		&res,
		opts...,
	); err != nil {
		return "", err
	}
	text := common.CleanText(res.Summary)
	if text == "" {
		return "", fmt.Errorf("model returned an empty summary")
	}
	return text, nil
}

// RenderFacts formats outgoing edges as "- RELATION: label (category)".
func RenderFacts(facts []common.Neighbor) []string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", f.Edge.RelationType, f.Node.Label, f.Node.Category))
	}
	return lines
}
