// Package service orchestrates one translation: validation, credential
// check, language resolution, the primary model call, normalization and
// the best-effort description refinement.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"github.com/valpere/linguabridge/internal"
	"github.com/valpere/linguabridge/internal/detector"
	"github.com/valpere/linguabridge/internal/generator"
	"github.com/valpere/linguabridge/internal/language"
	"github.com/valpere/linguabridge/internal/normalize"
	"github.com/valpere/linguabridge/internal/prompt"
	"github.com/valpere/linguabridge/internal/refiner"
	"github.com/valpere/linguabridge/internal/validator"
)

// AutoSource asks the service to detect the source language.
const AutoSource = "auto"

type Config struct {
	Model string
	// CallTimeout bounds each model attempt; zero leaves it to ctx.
	CallTimeout time.Duration
	// MaxAttempts counts the first call; values below 1 mean 1.
	MaxAttempts  int
	RetryBackoff time.Duration
	// MaxIdioms truncates idioms; zero keeps all of them.
	MaxIdioms int
	// MaxTextLength limits text in runes; zero disables the check.
	MaxTextLength int
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	gen        generator.Generator
	credential func() string
	config     Config

	refiner   refiner.Refiner
	detector  *detector.Detector
	validator *validator.Validator
	logger    *slog.Logger
}

type Option func(*Service)

// WithRefiner enables description localization.
func WithRefiner(r refiner.Refiner) Option {
	return func(s *Service) { s.refiner = r }
}

// WithDetector enables sourceLang "auto".
func WithDetector(d *detector.Detector) Option {
	return func(s *Service) { s.detector = d }
}

// WithValidator logs a warning when a translation is not in the target language.
func WithValidator(v *validator.Validator) Option {
	return func(s *Service) { s.validator = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. credential is called once per request.
func New(gen generator.Generator, credential func() string, config Config, opts ...Option) *Service {
	s := &Service{
		gen:        gen,
		credential: credential,
		config:     config,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratorConfig returns the per-call model settings with the current
// credential.
func (s *Service) GeneratorConfig() generator.Config {
	return generator.Config{APIKey: s.credential(), Model: s.config.Model}
}

// Translate runs the pipeline for req. Errors are *Error values; model
// reply irregularities never surface as errors.
func (s *Service) Translate(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
	if req.Text == "" || req.SourceLang == "" || req.TargetLang == "" {
		return nil, ErrMissingParameters
	}
	if s.config.MaxTextLength > 0 && utf8.RuneCountInString(req.Text) > s.config.MaxTextLength {
		return nil, ErrTextTooLong
	}

	cfg := s.GeneratorConfig()
	if s.gen.RequiresAPIKey() && cfg.APIKey == "" {
		s.logger.ErrorContext(ctx, "model credential not configured", slog.String("provider", s.gen.Name()))
		return nil, &Error{
			Kind:    KindServiceUnavailable,
			Message: fmt.Sprintf("%s API key not configured", providerTitle(s.gen.Name())),
		}
	}

	sourceName, _ := language.Describe(s.resolveSource(ctx, req.SourceLang, req.Text))
	targetName, targetCode := language.Describe(req.TargetLang)

	cfg.JSON = true
	reply, err := s.generate(ctx, cfg, prompt.BuildTranslationPrompt(sourceName, targetName, req.Text))
	if err != nil {
		s.logger.ErrorContext(ctx, "translation call failed",
			slog.String("provider", s.gen.Name()),
			slog.String("error", err.Error()))
		return nil, &Error{Kind: KindTranslationFailed, Message: ErrTranslationFailed.Message, Err: err}
	}

	outcome := normalize.Normalize(reply)
	result := outcome.Result
	if !outcome.Parsed {
		s.logger.WarnContext(ctx, "model reply was not valid JSON, using raw text",
			slog.String("provider", s.gen.Name()))
	}

	if s.config.MaxIdioms > 0 && len(result.Idioms) > s.config.MaxIdioms {
		result.Idioms = result.Idioms[:s.config.MaxIdioms]
	}

	if outcome.Parsed && result.Description != "" && s.refiner != nil {
		result.Description = s.refiner.Refine(ctx, result.Description, targetName, targetCode)
	}

	if s.validator != nil {
		if ok, verr := s.validator.IsValid(result.Translation, targetCode); !ok {
			s.logger.WarnContext(ctx, "translation language mismatch",
				slog.String("target", targetCode),
				slog.String("error", verr.Error()))
		}
	}

	return &result, nil
}

// resolveSource lowercases the identifier and, for "auto", detects the
// language of text. Detection failure leaves "auto" in place.
func (s *Service) resolveSource(ctx context.Context, sourceLang, text string) string {
	if strings.ToLower(sourceLang) != AutoSource || s.detector == nil {
		return sourceLang
	}
	if code, ok := s.detector.DetectISO(text); ok {
		s.logger.DebugContext(ctx, "detected source language", slog.String("source", code))
		return code
	}
	return sourceLang
}

// generate calls the model with a per-attempt timeout, retrying transient
// failures with exponential backoff.
func (s *Service) generate(ctx context.Context, cfg generator.Config, p string) (string, error) {
	attempts := s.config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff(s.config.RetryBackoff, attempt)):
			}
		}

		reply, err := s.attempt(ctx, cfg, p)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if generator.IsPermanent(err) || ctx.Err() != nil {
			break
		}
		s.logger.WarnContext(ctx, "model call failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.String("error", err.Error()))
	}
	return "", lastErr
}

func (s *Service) attempt(ctx context.Context, cfg generator.Config, p string) (string, error) {
	if s.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CallTimeout)
		defer cancel()
	}

	reply, err := s.gen.Generate(ctx, cfg, p)
	if err != nil {
		return "", err
	}
	if normalize.Clean(reply) == "" {
		return "", fmt.Errorf("%s: %w", s.gen.Name(), generator.ErrEmptyResponse)
	}
	return reply, nil
}

// maxBackoffShift caps the doubling so large attempt counts cannot
// overflow the wait.
const maxBackoffShift = 6

// backoff returns the wait before retry n (1-based): base, 2*base, 4*base
// and so on up to base<<maxBackoffShift.
func backoff(base time.Duration, retry int) time.Duration {
	shift := retry - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return base << shift
}

// providerNames holds display names title casing gets wrong.
var providerNames = map[string]string{
	"openrouter": "OpenRouter",
}

func providerTitle(name string) string {
	if display, ok := providerNames[strings.ToLower(name)]; ok {
		return display
	}
	return cases.Title(xlanguage.English).String(name)
}
