package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultOracleTimeout bounds a single oracle call when none is configured.
const DefaultOracleTimeout = 30 * time.Second

// DecisionService arbitrates permission requests and records every verdict.
type DecisionService struct {
	assembler *ContextAssembler
	oracle    Oracle
	log       *RequestLog
	timeout   time.Duration
	locks     *keyedMutex
	logger    *slog.Logger
}

// NewDecisionService constructs a decision service.
func NewDecisionService(assembler *ContextAssembler, oracle Oracle, log *RequestLog, timeout time.Duration) *DecisionService {
	return NewDecisionServiceWithLogger(assembler, oracle, log, timeout, nil)
}

// NewDecisionServiceWithLogger constructs a decision service with a specified logger.
func NewDecisionServiceWithLogger(assembler *ContextAssembler, oracle Oracle, log *RequestLog, timeout time.Duration, logger *slog.Logger) *DecisionService {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &DecisionService{
		assembler: assembler,
		oracle:    oracle,
		log:       log,
		timeout:   timeout,
		locks:     newKeyedMutex(),
		logger:    defaultLogger(logger),
	}
}

func (s *DecisionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DecisionService", operation, attrs...)
}

// Decide assembles the context for the request, asks the oracle for a
// verdict, validates it and appends it to the request log. The caller gets
// either a recorded verdict or an error.
//
// Decisions for the same user are serialized so that each one sees the
// history written by the previous one.
func (s *DecisionService) Decide(ctx context.Context, params DecideParams) (verdict Verdict, err error) {
	if s == nil {
		err = fmt.Errorf("DecisionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Decide",
		"user_id", params.UserID,
		"query_length", len(params.Query),
		"usage_samples", len(params.Usage),
	)
	started := time.Now()
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "decision failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "decision recorded",
			"allow", verdict.Allow,
			"minutes", verdict.Minutes,
			"duration", time.Since(started),
		)
	}()

	query := strings.TrimSpace(params.Query)
	vErr := &ValidationError{}
	if strings.TrimSpace(params.UserID) == "" {
		vErr.add("user_id", "is required")
	}
	if query == "" {
		vErr.add("query", "is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var unlock func()
	unlock, err = s.locks.LockContext(ctx, params.UserID)
	if err != nil {
		err = fmt.Errorf("wait for pending decision of %s: %w", params.UserID, err)
		return
	}
	defer unlock()

	var dc DecisionContext
	dc, err = s.assembler.Assemble(ctx, params.UserID, params.Usage)
	if err != nil {
		return
	}

	var candidate Verdict
	candidate, err = s.ask(ctx, dc, query)
	if err != nil {
		return
	}

	if _, err = s.log.Append(ctx, params.UserID, query, candidate); err != nil {
		err = &LogWriteError{UserID: params.UserID, Verdict: candidate, Err: err}
		return
	}

	verdict = candidate
	return
}

func (s *DecisionService) ask(ctx context.Context, dc DecisionContext, query string) (Verdict, error) {
	req := OracleRequest{
		Profile:      ProfileArbitration,
		Instructions: []string{gatekeeperInstructions, dc.Personality.Profile()},
		Context:      dc.Render(),
		Query:        query,
		Schema:       VerdictSchema,
	}

	raw, err := callOracle(ctx, s.oracle, s.timeout, req)
	if err != nil {
		return Verdict{}, err
	}

	var verdict Verdict
	if err := decodeStrict(raw, VerdictSchema, &verdict); err != nil {
		return Verdict{}, err
	}
	if err := validateVerdict(verdict); err != nil {
		return Verdict{}, err
	}
	return verdict, nil
}

// validateVerdict enforces allow=false => minutes=0. Violations are rejected
// rather than coerced.
func validateVerdict(v Verdict) error {
	if v.Minutes < 0 {
		return fmt.Errorf("%w: negative minutes %d", ErrOracleContractViolation, v.Minutes)
	}
	if !v.Allow && v.Minutes != 0 {
		return fmt.Errorf("%w: denied verdict grants %d minutes", ErrOracleContractViolation, v.Minutes)
	}
	return nil
}

// callOracle issues exactly one oracle call bounded by timeout. Failures are
// reported as ErrUpstreamUnavailable.
func callOracle(ctx context.Context, oracle Oracle, timeout time.Duration, req OracleRequest) ([]byte, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: no oracle configured", ErrUpstreamUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := oracle.Complete(callCtx, req)
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return raw, nil
}
