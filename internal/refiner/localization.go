package refiner

import (
	"context"
	"log/slog"
	"time"

	"github.com/valpere/linguabridge/internal/generator"
	"github.com/valpere/linguabridge/internal/markdown"
	"github.com/valpere/linguabridge/internal/postprocess"
	"github.com/valpere/linguabridge/internal/prompt"
)

// LocalizationRefiner asks the model for a more natural description.
type LocalizationRefiner struct {
	gen     generator.Generator
	cfg     func() generator.Config
	timeout time.Duration
	logger  *slog.Logger
}

// NewLocalizationRefiner creates a refiner backed by gen. cfg is evaluated
// on every call so the current credential is used. A zero timeout leaves
// the deadline to ctx.
func NewLocalizationRefiner(gen generator.Generator, cfg func() generator.Config, timeout time.Duration, logger *slog.Logger) *LocalizationRefiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalizationRefiner{
		gen:     gen,
		cfg:     cfg,
		timeout: timeout,
		logger:  logger,
	}
}

// Refine returns the rewritten description, or description itself when
// the call fails or yields nothing usable.
func (r *LocalizationRefiner) Refine(ctx context.Context, description, targetName, targetCode string) string {
	if description == "" {
		return description
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cfg := r.cfg()
	cfg.JSON = false

	reply, err := r.gen.Generate(ctx, cfg, prompt.BuildLocalizationPrompt(description, targetName, targetCode))
	if err != nil {
		r.logger.WarnContext(ctx, "failed to localize description",
			slog.String("provider", r.gen.Name()),
			slog.String("error", err.Error()))
		return description
	}

	refined := markdown.ToPlainText(postprocess.Clean(reply))
	if refined == "" {
		return description
	}
	return refined
}
