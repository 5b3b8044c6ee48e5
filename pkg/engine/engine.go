// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package engine implements the conversation engine: one user utterance in,
// one final assistant answer out, with bounded tool-calling rounds between.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmolins/convo/pkg/errors"
	"github.com/dmolins/convo/pkg/llm"
	"github.com/dmolins/convo/pkg/resilience"
	"github.com/dmolins/convo/pkg/session"
	"github.com/dmolins/convo/pkg/tools"
)

// DefaultSystemPrompt keeps answers crisp but helpful.
const DefaultSystemPrompt = "You are a concise, accurate AI assistant. " +
	"You can call functions to get weather or news. " +
	"Default to short, actionable answers. " +
	"If uncertain, say so and suggest next steps."

// FallbackAnswer is returned when the round cap forces termination.
const FallbackAnswer = "I was unable to complete the request. Please try rephrasing or narrowing it down."

// correctionHint is injected before retrying a malformed model response.
const correctionHint = "Your previous reply was empty or malformed. " +
	"Reply with either a plain text answer or a valid function call."

// defaultMaxRounds bounds tool-calling rounds per turn. Deliberately small:
// with two lookup capabilities a turn needs at most one weather and one
// news round plus slack.
const defaultMaxRounds = 3

// Engine orchestrates sessions, the model and the capability registry.
type Engine struct {
	provider     llm.Provider
	registry     *tools.Registry
	store        *session.Store
	model        string
	temperature  float64
	timeout      time.Duration
	maxRounds    int
	systemPrompt string
	tracer       trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTemperature sets the sampling temperature sent to the model.
func WithTemperature(t float64) Option {
	return func(e *Engine) { e.temperature = t }
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMaxRounds overrides the tool-calling round cap.
func WithMaxRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// New creates an Engine. model is the deployment/model name sent on every
// chat request.
func New(provider llm.Provider, registry *tools.Registry, store *session.Store, model string, opts ...Option) *Engine {
	e := &Engine{
		provider:     provider,
		registry:     registry,
		store:        store,
		model:        model,
		temperature:  0.2,
		timeout:      60 * time.Second,
		maxRounds:    defaultMaxRounds,
		systemPrompt: DefaultSystemPrompt,
		tracer:       otel.Tracer("convo/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn runs one full turn for the session and returns the final answer.
// The user message is committed up front; a failed turn never commits a
// half-formed assistant or tool message.
func (e *Engine) Turn(ctx context.Context, sessionID, input string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Turn", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	initMetrics()
	turnCounter.Add(ctx, 1)
	start := time.Now()
	log := slog.Default()

	log.Info("engine.turn.start",
		slog.String("session_id", sessionID),
		slog.Int("input_len", len(input)),
	)

	sess := e.store.GetOrCreate(sessionID)
	sess.Append(session.Message{Role: llm.RoleUser, Content: input})

	answer, rounds, err := e.runRounds(ctx, log, sess)
	if err != nil {
		turnErrorCounter.Add(ctx, 1)
		log.Error("engine.turn.error",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	span.SetAttributes(attribute.Int("turn.rounds", rounds))
	roundHistogram.Record(ctx, int64(rounds))
	turnLatencyMs.Record(ctx, time.Since(start).Seconds()*1000)
	log.Info("engine.turn.complete",
		slog.String("session_id", sessionID),
		slog.Int("rounds", rounds),
	)
	return answer, nil
}

// runRounds drives the per-turn state machine. It returns the final answer
// and the number of tool rounds consumed.
func (e *Engine) runRounds(ctx context.Context, log *slog.Logger, sess *session.Session) (string, int, error) {
	defs := e.registry.Definitions()
	rounds := 0
	retriedMalformed := false
	var hint string

	for {
		messages := make([]llm.Message, 0, sess.Len()+2)
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: e.systemPrompt})
		messages = append(messages, sess.History()...)
		if hint != "" {
			messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: hint})
			hint = ""
		}

		resp, err := e.chat(ctx, llm.ChatRequest{
			Model:       e.model,
			Messages:    messages,
			Tools:       defs,
			Temperature: e.temperature,
		})
		if err != nil {
			return "", rounds, err
		}

		switch {
		case len(resp.ToolCalls) > 0:
			e.executeToolCalls(ctx, log, sess, resp)
			rounds++
			if rounds >= e.maxRounds {
				log.Warn("engine.round_cap",
					slog.String("session_id", sess.ID()),
					slog.Int("rounds", rounds),
				)
				sess.Append(session.Message{Role: llm.RoleAssistant, Content: FallbackAnswer})
				return FallbackAnswer, rounds, nil
			}

		case resp.Content != "":
			sess.Append(session.Message{Role: llm.RoleAssistant, Content: resp.Content})
			return resp.Content, rounds, nil

		default:
			// Neither text nor tool calls: a protocol violation. Retry once
			// with a correction hint, then degrade to the fallback answer.
			if !retriedMalformed {
				retriedMalformed = true
				hint = correctionHint
				log.Warn("engine.model.malformed_retry", slog.String("session_id", sess.ID()))
				continue
			}
			log.Warn("engine.model.malformed_fallback", slog.String("session_id", sess.ID()))
			sess.Append(session.Message{Role: llm.RoleAssistant, Content: FallbackAnswer})
			return FallbackAnswer, rounds, nil
		}
	}
}

// chat calls the model under the configured timeout.
func (e *Engine) chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Chat", trace.WithAttributes(
		attribute.String("llm.model", e.model),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	start := time.Now()
	resp, err := resilience.WithTimeoutResult(ctx, resilience.TimeoutConfig{Duration: e.timeout},
		func(ctx context.Context) (*llm.ChatResponse, error) {
			return e.provider.Chat(ctx, req)
		})
	modelLatencyMs.Record(ctx, time.Since(start).Seconds()*1000)
	if err != nil {
		if ce, ok := err.(*errors.Error); ok && ce.Code == errors.CodeTimeout {
			return nil, ce
		}
		return nil, errors.New(errors.CodeLLMError, "model call failed", err).
			WithContext("model", e.model).
			WithRecoverable(true)
	}
	return resp, nil
}

// executeToolCalls records the assistant's request and appends exactly one
// tool-role message per requested call, success or failure.
func (e *Engine) executeToolCalls(ctx context.Context, log *slog.Logger, sess *session.Session, resp *llm.ChatResponse) {
	sess.Append(session.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	for _, tc := range resp.ToolCalls {
		toolCtx, span := e.tracer.Start(ctx, "Engine.Tool", trace.WithAttributes(
			attribute.String("tool.name", tc.Function.Name),
			attribute.String("tool.call_id", tc.ID),
		))
		start := time.Now()
		result := e.registry.Execute(toolCtx, tc.Function.Name, tc.Function.Arguments)
		toolLatencyMs.Record(ctx, time.Since(start).Seconds()*1000)
		span.End()

		if result.OK {
			log.Info("engine.tool.complete",
				slog.String("session_id", sess.ID()),
				slog.String("tool", tc.Function.Name),
			)
		} else {
			log.Warn("engine.tool.failed",
				slog.String("session_id", sess.ID()),
				slog.String("tool", tc.Function.Name),
				slog.String("error", result.Error),
			)
		}

		sess.Append(session.Message{
			Role:       llm.RoleTool,
			Content:    result.JSON(),
			ToolCallID: tc.ID,
		})
	}
}
