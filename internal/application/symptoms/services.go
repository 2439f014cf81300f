package symptoms

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bryanwahyu/mediassist-gateway/internal/application"
	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
)

// DefaultFunction is used when no function name is configured
const DefaultFunction = domain.AnalyzerFunction

// Invocation outcomes reported to the Observer
const (
	OutcomeSuccess       = "success"
	OutcomeRemoteError   = "remote_error"
	OutcomeContractError = "contract_error"
)

// Observer receives metrics about validation and remote calls. Optional.
type Observer interface {
	ObserveRejection(direction string)
	ObserveInvocation(function, outcome string, d time.Duration)
}

// Service orchestrates one analysis: validate the request, invoke the remote
// function once, validate its result. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	Gateway  *Gateway
	Invoker  domain.Invoker
	Function string
	Clock    application.Clock
	Observer Observer
	Logger   *slog.Logger
}

func NewService(gw *Gateway, inv domain.Invoker, function string) *Service {
	if function == "" {
		function = DefaultFunction
	}
	return &Service{
		Gateway:  gw,
		Invoker:  inv,
		Function: function,
		Clock:    application.SystemClock{},
		Logger:   slog.Default(),
	}
}

// Analyze validates an untyped request body and runs the analysis.
// Errors are *domain.ValidationError (request), *domain.RemoteInvocationError
// or *domain.ResponseContractError.
func (s *Service) Analyze(ctx context.Context, raw []byte) (*domain.Response, error) {
	req, err := s.Gateway.ValidateRequest(raw)
	if err != nil {
		s.logger().Warn("Service.Analyze: request rejected", "error", err)
		s.observeRejection(domain.DirectionRequest)
		return nil, err
	}
	return s.Invoke(ctx, req)
}

// Invoke sends an already validated request to the remote function.
func (s *Service) Invoke(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	payload := domain.NewPayload(req)
	log := s.logger().With("function", s.Function)
	log.Info("Service.Invoke: calling remote function", "symptoms_len", len([]rune(req.Symptoms)))

	// the remote call runs to completion even if the caller goes away
	callCtx := context.WithoutCancel(ctx)

	start := s.clock().Now()
	raw, err := s.Invoker.Invoke(callCtx, s.Function, payload)
	elapsed := application.Since(s.clock(), start)
	if err != nil {
		rerr := asRemoteError(err)
		log.Warn("Service.Invoke: remote invocation failed", "code", rerr.Code, "error", err, "duration", elapsed)
		s.observeInvocation(OutcomeRemoteError, elapsed)
		return nil, rerr
	}

	resp, err := s.Gateway.ValidateResponse(raw)
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			ve = &domain.ValidationError{Direction: domain.DirectionResponse, Fields: []domain.FieldError{{Field: bodyField, Type: "invalid", Message: err.Error()}}}
		}
		log.Error("Service.Invoke: remote response violates contract", "violations", len(ve.Fields), "error", ve, "duration", elapsed)
		s.observeRejection(domain.DirectionResponse)
		s.observeInvocation(OutcomeContractError, elapsed)
		return nil, &domain.ResponseContractError{Function: s.Function, Err: ve}
	}

	log.Info("Service.Invoke: analysis completed", "diagnoses", len(resp.Diagnoses), "duration", elapsed)
	s.observeInvocation(OutcomeSuccess, elapsed)
	return resp, nil
}

func asRemoteError(err error) *domain.RemoteInvocationError {
	var rerr *domain.RemoteInvocationError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &domain.RemoteInvocationError{Code: "UNKNOWN", Message: "remote call failed", Err: err}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) observeRejection(dir domain.Direction) {
	if s.Observer != nil {
		s.Observer.ObserveRejection(string(dir))
	}
}

func (s *Service) observeInvocation(outcome string, d time.Duration) {
	if s.Observer != nil {
		s.Observer.ObserveInvocation(s.Function, outcome, d)
	}
}
