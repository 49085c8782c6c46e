package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
	"github.com/Conceptual-Machines/hybridation-api/internal/logger"
	"github.com/Conceptual-Machines/hybridation-api/internal/retry"
	"github.com/getsentry/sentry-go"
)

// User facing messages for overload failures.
const (
	MsgPrimaryOverloadedNoFallback = "Les serveurs Gemini sont surchargés et aucune clé OpenAI n'est configurée comme fallback."
	MsgAllProvidersOverloaded      = "Tous les modèles IA sont temporairement surchargés. Veuillez réessayer dans quelques instants."
	MsgPrimaryNotConfigured        = "GOOGLE_API_KEY not configured"
)

// Config wires an Orchestrator. Secondary may be nil.
type Config struct {
	Primary    llm.ImageProvider
	Secondary  llm.ImageProvider
	Policy     retry.Policy
	Classifier retry.Classifier
	Sleep      retry.SleepFunc
	Observer   Observer
}

// Orchestrator runs the two stage pipeline with retry on the primary
// provider and a one way switch to the secondary on transient failure.
// It keeps no state between runs.
type Orchestrator struct {
	primary   llm.ImageProvider
	secondary llm.ImageProvider
	caller    *retry.Caller
	classify  retry.Classifier
	observer  Observer
}

func New(cfg Config) *Orchestrator {
	classify := cfg.Classifier
	if classify == nil {
		classify = retry.Classify
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &Orchestrator{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		caller:    retry.NewCaller(cfg.Policy, classify, cfg.Sleep),
		classify:  classify,
		observer:  observer,
	}
}

// Configured reports whether a primary provider is available.
func (o *Orchestrator) Configured() bool {
	return o.primary != nil
}

// HasFallback reports whether a secondary provider is available.
func (o *Orchestrator) HasFallback() bool {
	return o.secondary != nil
}

// Run executes EnhancePrompt then GenerateImage for the given variant.
func (o *Orchestrator) Run(ctx context.Context, req Request, variant Variant) (*Result, error) {
	if o.primary == nil {
		return nil, apperr.New(apperr.KindMisconfigured, "generation.run", MsgPrimaryNotConfigured)
	}

	r := &run{
		o:        o,
		req:      req,
		variant:  variant,
		provider: o.primary,
		role:     RolePrimary,
	}

	enhanced, err := execute[string](ctx, r, llm.StageEnhance, r.enhance)
	if err != nil {
		return nil, err
	}

	image, err := execute[*llm.Image](ctx, r, llm.StageGenerate, func(ctx context.Context, p llm.ImageProvider, fallback bool) (*llm.Image, error) {
		return r.generate(ctx, p, fallback, enhanced)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:         image.Data,
		MIMEType:      image.MIMEType,
		EnhancedStyle: enhanced,
		Provider:      r.role,
		ProviderName:  r.provider.Name(),
		Variant:       variant.Name,
		Format:        variant.Format,
		Attempts:      r.attempts,
	}, nil
}

// run is the per request state: the active provider and the attempt trail.
type run struct {
	o        *Orchestrator
	req      Request
	variant  Variant
	provider llm.ImageProvider
	role     Role
	attempts []ProviderAttempt
}

// stageOp calls one stage on a provider. fallback selects the prompts
// written for the secondary provider.
type stageOp[T any] func(ctx context.Context, p llm.ImageProvider, fallback bool) (T, error)

func (r *run) enhance(ctx context.Context, p llm.ImageProvider, fallback bool) (string, error) {
	text, err := p.EnhancePrompt(ctx, llm.EnhanceRequest{
		Instruction: r.variant.Prompts.EnhanceInstruction(fallback),
		Style:       r.req.Style,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%s returned an empty prompt", p.Name())
	}
	return text, nil
}

func (r *run) generate(ctx context.Context, p llm.ImageProvider, fallback bool, enhanced string) (*llm.Image, error) {
	prompt, err := r.variant.Prompts.Render(fallback, enhanced)
	if err != nil {
		return nil, err
	}

	request := llm.ImageRequest{
		Prompt:         prompt,
		SourceImage:    r.req.SourceImage,
		SourceMIMEType: r.req.SourceMIMEType,
	}
	if fallback {
		request.Size = r.variant.FallbackSize
	}

	image, err := p.GenerateImage(ctx, request)
	if err != nil {
		return nil, err
	}
	if image == nil || len(image.Data) == 0 {
		return nil, fmt.Errorf("%s: %w", p.Name(), llm.ErrNoImage)
	}
	return image, nil
}

// execute runs a stage on the active provider. A transient primary failure
// moves the run to the secondary for this and every later stage.
func execute[T any](ctx context.Context, r *run, stage llm.Stage, op stageOp[T]) (T, error) {
	var zero T

	if r.role == RoleSecondary {
		result, err := record(ctx, r, stage, 1, op)
		if err != nil {
			return zero, r.terminal(stage, err)
		}
		return result, nil
	}

	attempt := 0
	result, err := retry.Do(ctx, r.o.caller, func(ctx context.Context) (T, error) {
		attempt++
		return record(ctx, r, stage, attempt, op)
	})
	if err == nil {
		return result, nil
	}

	if r.o.classify(err) != retry.Transient || r.o.secondary == nil {
		return zero, r.terminal(stage, err)
	}

	r.switchToSecondary(ctx, stage, err)
	result, err = record(ctx, r, stage, 1, op)
	if err != nil {
		return zero, r.terminal(stage, err)
	}
	return result, nil
}

// record runs op once on the active provider and appends the attempt to the trail.
func record[T any](ctx context.Context, r *run, stage llm.Stage, attempt int, op stageOp[T]) (T, error) {
	start := time.Now()
	result, err := op(ctx, r.provider, r.role == RoleSecondary)

	entry := ProviderAttempt{
		Stage:     stage,
		Provider:  r.provider.Name(),
		Role:      r.role,
		Attempt:   attempt,
		Outcome:   OutcomeSuccess,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	if err != nil {
		entry.Outcome = OutcomeFailure
		entry.Class = r.o.classify(err).String()
		entry.Error = err.Error()
	}
	r.attempts = append(r.attempts, entry)
	r.o.observer.ProviderAttempted(ctx, entry)
	logger.LogProviderCall(entry.Provider, string(stage), attempt, entry.Duration, err, r.fields())

	return result, err
}

func (r *run) switchToSecondary(ctx context.Context, stage llm.Stage, cause error) {
	from := r.provider.Name()
	r.provider = r.o.secondary
	r.role = RoleSecondary

	fields := r.fields().With(logger.Fields{
		"stage": string(stage),
		"from":  from,
		"to":    r.provider.Name(),
		"cause": cause.Error(),
	})
	logger.Warn("Primary provider overloaded, switching to fallback", fields)
	logger.LogToSentry(sentry.LevelWarning, "Provider fallback engaged", fields)
	r.o.observer.ProviderSwitched(ctx, stage, from, r.provider.Name())
}

// terminal converts the final stage failure into the client facing error.
func (r *run) terminal(stage llm.Stage, err error) error {
	op := "generation." + string(stage)

	if r.o.classify(err) != retry.Transient {
		return apperr.Wrap(apperr.KindProviderPermanent, op, "Generation failed", err)
	}

	msg := MsgAllProvidersOverloaded
	if r.role == RolePrimary && r.o.secondary == nil {
		msg = MsgPrimaryOverloadedNoFallback
	}
	return &apperr.Error{
		Kind:    apperr.KindProviderTransient,
		Op:      op,
		Message: msg,
		Cause:   err,
	}
}

func (r *run) fields() logger.Fields {
	return logger.Fields{
		"request_id": r.req.RequestID,
		"variant":    r.variant.Name,
	}
}

// IsOverloaded reports whether err is the all-providers-overloaded failure.
func IsOverloaded(err error) bool {
	var typed *apperr.Error
	return errors.As(err, &typed) && typed.Kind == apperr.KindProviderTransient
}
