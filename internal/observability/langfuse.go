package observability

import (
	"context"
	"log"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/Conceptual-Machines/hybridation-api/internal/config"
	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
)

const levelError = "ERROR"

type traceKey struct{}

// LangfuseClient wraps the Langfuse client with our configuration
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
}

// InitializeLangfuse creates the client. The SDK reads LANGFUSE_HOST,
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY from the environment.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" || cfg.LangfusePublicKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or keys not set)")
		return &LangfuseClient{}
	}

	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	return &LangfuseClient{
		client:  langfuse.New(ctx),
		enabled: true,
	}
}

// IsEnabled returns whether Langfuse is enabled
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// StartTrace opens a trace for one request. The returned trace is never
// nil; when tracing is off all its methods are no-ops.
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !c.IsEnabled() {
		return &Trace{ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &Trace{ctx: ctx}
	}

	return &Trace{
		trace:   trace,
		enabled: true,
		ctx:     ctx,
		client:  c.client,
	}
}

// Trace represents a Langfuse trace
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// ContextWithTrace attaches t so that observers further down can find it.
func ContextWithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFromContext returns the request trace, or nil.
func TraceFromContext(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey{}).(*Trace)
	return t
}

func (t *Trace) Enabled() bool {
	return t != nil && t.enabled
}

// RecordAttempt stores one provider call as a generation of the trace.
func (t *Trace) RecordAttempt(attempt generation.ProviderAttempt) {
	if !t.Enabled() {
		return
	}

	succeeded := attempt.Outcome == generation.OutcomeSuccess
	cost := EstimateCallCost(attempt.Provider, attempt.Stage, succeeded)
	start := attempt.StartedAt
	end := start.Add(attempt.Duration)

	gen := &model.Generation{
		TraceID:   t.trace.ID,
		Name:      string(attempt.Stage),
		StartTime: &start,
		EndTime:   &end,
		Metadata: map[string]interface{}{
			"provider": attempt.Provider,
			"role":     string(attempt.Role),
			"attempt":  attempt.Attempt,
			"outcome":  string(attempt.Outcome),
			"cost_usd": cost,
		},
		Usage: model.Usage{
			TotalCost: cost,
		},
	}
	if !succeeded {
		gen.Level = model.ObservationLevel(levelError)
		gen.StatusMessage = attempt.Error
	}

	if _, err := t.client.Generation(gen, nil); err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
	}
}

// RecordSwitch marks the move to the secondary provider.
func (t *Trace) RecordSwitch(stage llm.Stage, from, to string) {
	if !t.Enabled() {
		return
	}

	now := time.Now()
	_, err := t.client.Event(&model.Event{
		TraceID:   t.trace.ID,
		Name:      "provider_switch",
		StartTime: &now,
		Metadata: map[string]interface{}{
			"stage": string(stage),
			"from":  from,
			"to":    to,
		},
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse event: %v", err)
	}
}

// Finish flushes queued events for the trace.
func (t *Trace) Finish() {
	if t.Enabled() && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// TraceObserver forwards orchestrator events to the trace found in the
// request context.
type TraceObserver struct{}

func (TraceObserver) ProviderAttempted(ctx context.Context, attempt generation.ProviderAttempt) {
	TraceFromContext(ctx).RecordAttempt(attempt)
}

func (TraceObserver) ProviderSwitched(ctx context.Context, stage llm.Stage, from, to string) {
	TraceFromContext(ctx).RecordSwitch(stage, from, to)
}
