package generation

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
)

// Role tells which configured provider served a call.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Outcome of a single provider call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Request is one generation job.
type Request struct {
	RequestID      string
	Style          string
	SourceImage    []byte
	SourceMIMEType string
}

// Result of a successful run. Provider is the provider of the image stage.
type Result struct {
	Image         []byte
	MIMEType      string
	EnhancedStyle string
	Provider      Role
	ProviderName  string
	Variant       string
	Format        string
	Attempts      []ProviderAttempt
}

// ProviderAttempt records one provider call within a run. It only lives for
// the duration of the request.
type ProviderAttempt struct {
	Stage     llm.Stage
	Provider  string
	Role      Role
	Attempt   int
	Outcome   Outcome
	Class     string
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Observer receives run events, e.g. for metrics.
type Observer interface {
	ProviderAttempted(ctx context.Context, attempt ProviderAttempt)
	ProviderSwitched(ctx context.Context, stage llm.Stage, from, to string)
}

type noopObserver struct{}

func (noopObserver) ProviderAttempted(context.Context, ProviderAttempt)         {}
func (noopObserver) ProviderSwitched(context.Context, llm.Stage, string, string) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (obs Observers) ProviderAttempted(ctx context.Context, attempt ProviderAttempt) {
	for _, o := range obs {
		o.ProviderAttempted(ctx, attempt)
	}
}

func (obs Observers) ProviderSwitched(ctx context.Context, stage llm.Stage, from, to string) {
	for _, o := range obs {
		o.ProviderSwitched(ctx, stage, from, to)
	}
}
