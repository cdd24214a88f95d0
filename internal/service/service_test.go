package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valpere/linguabridge/internal"
	"github.com/valpere/linguabridge/internal/detector"
	"github.com/valpere/linguabridge/internal/generator"
	"github.com/valpere/linguabridge/internal/normalize"
	"github.com/valpere/linguabridge/internal/refiner"
)

type step struct {
	reply string
	err   error
}

// scriptedGenerator replays steps in order and records every call.
type scriptedGenerator struct {
	mu      sync.Mutex
	name    string
	keyless bool
	steps   []step
	prompts []string
	cfgs    []generator.Config
}

func (g *scriptedGenerator) Name() string {
	if g.name == "" {
		return "gemini"
	}
	return g.name
}

func (g *scriptedGenerator) RequiresAPIKey() bool { return !g.keyless }

func (g *scriptedGenerator) Generate(ctx context.Context, cfg generator.Config, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	g.cfgs = append(g.cfgs, cfg)
	if len(g.steps) == 0 {
		return "", errors.New("unexpected call")
	}
	s := g.steps[0]
	g.steps = g.steps[1:]
	return s.reply, s.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type stubRefiner struct {
	out   string
	calls int
}

func (r *stubRefiner) Refine(ctx context.Context, description, targetName, targetCode string) string {
	r.calls++
	return r.out
}

func key(k string) func() string { return func() string { return k } }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() Config {
	return Config{
		Model:        "test-model",
		CallTimeout:  time.Second,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
		MaxIdioms:    2,
	}
}

const helloReply = `{"translation":"Hola mundo","idioms":[],"description":"A common greeting."}`

func TestTranslate_MissingParameters(t *testing.T) {
	tests := []struct {
		name string
		req  internal.TranslationRequest
	}{
		{"missing text", internal.TranslationRequest{SourceLang: "it", TargetLang: "es"}},
		{"missing source", internal.TranslationRequest{Text: "Ciao", TargetLang: "es"}},
		{"missing target", internal.TranslationRequest{Text: "Ciao", SourceLang: "it"}},
		{"all missing", internal.TranslationRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{}
			svc := New(gen, key("k"), testConfig(), WithLogger(quietLogger))

			res, err := svc.Translate(context.Background(), tt.req)
			if !errors.Is(err, ErrMissingParameters) {
				t.Errorf("expected ErrMissingParameters, got %v", err)
			}
			if res != nil {
				t.Error("expected nil result")
			}
			if gen.calls() != 0 {
				t.Errorf("expected zero upstream calls, got %d", gen.calls())
			}
		})
	}
}

func TestTranslate_MissingParametersBeforeCredential(t *testing.T) {
	gen := &scriptedGenerator{}
	svc := New(gen, key(""), testConfig(), WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao"})
	if KindOf(err) != KindMissingParameters {
		t.Errorf("expected validation to win over credential check, got %v", err)
	}
}

func TestTranslate_TextTooLong(t *testing.T) {
	gen := &scriptedGenerator{}
	cfg := testConfig()
	cfg.MaxTextLength = 5
	svc := New(gen, key("k"), cfg, WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "àèìòùx", SourceLang: "it", TargetLang: "es"})
	if !errors.Is(err, ErrTextTooLong) {
		t.Errorf("expected ErrTextTooLong, got %v", err)
	}
	if gen.calls() != 0 {
		t.Errorf("expected zero upstream calls, got %d", gen.calls())
	}

	gen.steps = []step{{reply: helloReply}}
	if _, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "àèìòù", SourceLang: "it", TargetLang: "es"}); err != nil {
		t.Errorf("expected text at the limit to pass, got %v", err)
	}
}

func TestTranslate_MissingCredential(t *testing.T) {
	gen := &scriptedGenerator{}
	svc := New(gen, key(""), testConfig(), WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if err.Error() != "Gemini API key not configured" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if gen.calls() != 0 {
		t.Errorf("expected zero upstream calls, got %d", gen.calls())
	}
}

func TestTranslate_MissingCredentialProviderName(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"gemini", "Gemini API key not configured"},
		{"openrouter", "OpenRouter API key not configured"},
	}

	for _, tt := range tests {
		gen := &scriptedGenerator{name: tt.provider}
		svc := New(gen, key(""), testConfig(), WithLogger(quietLogger))

		_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
		if err == nil || err.Error() != tt.want {
			t.Errorf("expected %q, got %v", tt.want, err)
		}
	}
}

func TestTranslate_CredentialReadPerRequest(t *testing.T) {
	current := ""
	gen := &scriptedGenerator{steps: []step{{reply: helloReply}}}
	svc := New(gen, func() string { return current }, testConfig(), WithLogger(quietLogger))
	req := internal.TranslationRequest{Text: "Ciao mondo", SourceLang: "it", TargetLang: "es"}

	if _, err := svc.Translate(context.Background(), req); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	current = "rotated"
	if _, err := svc.Translate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error after key appeared: %v", err)
	}
	if gen.cfgs[0].APIKey != "rotated" {
		t.Errorf("expected the new key to be used, got %q", gen.cfgs[0].APIKey)
	}
}

func TestTranslate_KeylessProvider(t *testing.T) {
	gen := &scriptedGenerator{name: "ollama", keyless: true, steps: []step{{reply: helloReply}}}
	svc := New(gen, key(""), testConfig(), WithLogger(quietLogger))

	if _, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranslate_EndToEnd(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{
		{reply: helloReply},
		{reply: "Un saludo común."},
	}}
	ref := refiner.NewLocalizationRefiner(gen, func() generator.Config { return generator.Config{APIKey: "k"} }, 0, quietLogger)
	svc := New(gen, key("k"), testConfig(), WithRefiner(ref), WithLogger(quietLogger))

	res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao mondo", SourceLang: "it", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &internal.TranslationResult{
		Translation: "Hola mundo",
		Idioms:      []string{},
		Description: "Un saludo común.",
	}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("got %#v, want %#v", res, want)
	}

	if gen.calls() != 2 {
		t.Fatalf("expected 2 model calls, got %d", gen.calls())
	}
	if !strings.Contains(gen.prompts[0], "from Italian to Spanish") {
		t.Errorf("expected display names in prompt, got %q", gen.prompts[0])
	}
	if !gen.cfgs[0].JSON {
		t.Error("expected JSON mode for the primary call")
	}
	if gen.cfgs[0].Model != "test-model" {
		t.Errorf("expected configured model, got %q", gen.cfgs[0].Model)
	}
	if !strings.Contains(gen.prompts[1], "Spanish (es)") {
		t.Errorf("expected localization prompt, got %q", gen.prompts[1])
	}
}

func TestTranslate_RefinementFailureKeepsDescription(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{
		{reply: helloReply},
		{err: errors.New("connection reset by peer")},
	}}
	ref := refiner.NewLocalizationRefiner(gen, func() generator.Config { return generator.Config{APIKey: "k"} }, 0, quietLogger)
	svc := New(gen, key("k"), testConfig(), WithRefiner(ref), WithLogger(quietLogger))

	res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao mondo", SourceLang: "it", TargetLang: "es"})
	if err != nil {
		t.Fatalf("expected refinement failure to stay silent, got %v", err)
	}
	if res.Description != "A common greeting." {
		t.Errorf("expected pre-refinement description, got %q", res.Description)
	}
	if res.Translation != "Hola mundo" {
		t.Errorf("expected translation to survive, got %q", res.Translation)
	}
}

func TestTranslate_EmptyDescriptionSkipsRefinement(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{reply: `{"translation":"Hola","idioms":[],"description":"  "}`}}}
	ref := &stubRefiner{out: "should not be used"}
	svc := New(gen, key("k"), testConfig(), WithRefiner(ref), WithLogger(quietLogger))

	res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.calls != 0 {
		t.Errorf("expected no refinement, got %d calls", ref.calls)
	}
	if res.Description != "" {
		t.Errorf("expected empty description, got %q", res.Description)
	}
}

func TestTranslate_UnparsedReplySkipsRefinement(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{reply: "Hola mundo\nEs un saludo."}}}
	ref := &stubRefiner{out: "x"}
	svc := New(gen, key("k"), testConfig(), WithRefiner(ref), WithLogger(quietLogger))

	res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao mondo", SourceLang: "it", TargetLang: "es"})
	if err != nil {
		t.Fatalf("expected parse problems to be absorbed, got %v", err)
	}
	if res.Translation != "Hola mundo" {
		t.Errorf("expected first line of reply, got %q", res.Translation)
	}
	if len(res.Idioms) != 0 {
		t.Errorf("expected no idioms, got %v", res.Idioms)
	}
	if res.Description != normalize.UnparsedNotice {
		t.Errorf("expected unparsed notice, got %q", res.Description)
	}
	if ref.calls != 0 {
		t.Errorf("expected no refinement of the notice, got %d calls", ref.calls)
	}
}

func TestTranslate_IdiomCap(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{reply: `{"translation":"Hola","idioms":["a","b","c"],"description":""}`}}}
	svc := New(gen, key("k"), testConfig(), WithLogger(quietLogger))

	res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.Idioms, []string{"a", "b"}) {
		t.Errorf("expected first two idioms, got %v", res.Idioms)
	}
}

func TestTranslate_NoIdiomCap(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{reply: `{"translation":"Hola","idioms":["a","b","c"],"description":""}`}}}
	cfg := testConfig()
	cfg.MaxIdioms = 0
	svc := New(gen, key("k"), cfg, WithLogger(quietLogger))

	res, _ := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if len(res.Idioms) != 3 {
		t.Errorf("expected all idioms, got %v", res.Idioms)
	}
}

func TestTranslate_UpstreamFailure(t *testing.T) {
	upstream := errors.New("dial tcp: connection refused")
	gen := &scriptedGenerator{steps: []step{{err: upstream}, {err: upstream}, {err: upstream}}}
	svc := New(gen, key("k"), testConfig(), WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if !errors.Is(err, ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected upstream reason to stay out of the message, got %q", err.Error())
	}
	if !errors.Is(err, upstream) {
		t.Error("expected the cause to be available to operators via Unwrap")
	}
	if gen.calls() != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls())
	}
}

func TestTranslate_PermanentFailureNotRetried(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{err: &generator.StatusError{Provider: "gemini", Code: 403}}}}
	svc := New(gen, key("bad"), testConfig(), WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if KindOf(err) != KindTranslationFailed {
		t.Fatalf("expected KindTranslationFailed, got %v", err)
	}
	if gen.calls() != 1 {
		t.Errorf("expected a single attempt, got %d", gen.calls())
	}
}

func TestTranslate_TransientFailureRecovered(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{
		{err: &generator.StatusError{Provider: "gemini", Code: 503}},
		{reply: "```json\n```"},
		{reply: helloReply},
	}}
	svc := New(gen, key("k"), testConfig(), WithLogger(quietLogger))

	res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao mondo", SourceLang: "it", TargetLang: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "Hola mundo" {
		t.Errorf("expected 'Hola mundo', got %q", res.Translation)
	}
	if gen.calls() != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls())
	}
}

func TestTranslate_CallTimeout(t *testing.T) {
	gen := &blockingGenerator{}
	cfg := testConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	cfg.MaxAttempts = 2
	svc := New(gen, key("k"), cfg, WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if !errors.Is(err, ErrTranslationFailed) {
		t.Fatalf("expected timeout to map to ErrTranslationFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline cause, got %v", errors.Unwrap(err))
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", gen.calls)
	}
}

func TestTranslate_CancelledContextStopsRetries(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{err: errors.New("boom")}, {reply: helloReply}}}
	cfg := testConfig()
	cfg.RetryBackoff = time.Hour
	svc := New(gen, key("k"), cfg, WithLogger(quietLogger))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Translate(ctx, internal.TranslationRequest{Text: "Ciao", SourceLang: "it", TargetLang: "es"})
	if KindOf(err) != KindTranslationFailed {
		t.Errorf("expected KindTranslationFailed, got %v", err)
	}
	if gen.calls() != 1 {
		t.Errorf("expected retries to stop on cancellation, got %d calls", gen.calls())
	}
}

func TestTranslate_UnknownLanguageEchoed(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{reply: helloReply}, {reply: "Une salutation."}}}
	ref := refiner.NewLocalizationRefiner(gen, func() generator.Config { return generator.Config{APIKey: "k"} }, 0, quietLogger)
	svc := New(gen, key("k"), testConfig(), WithRefiner(ref), WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao", SourceLang: "IT", TargetLang: "French"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompts[0], "from Italian to French") {
		t.Errorf("expected raw target name in prompt, got %q", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[1], "French (french)") {
		t.Errorf("expected lowercased code in localization prompt, got %q", gen.prompts[1])
	}
}

func TestTranslate_AutoSource(t *testing.T) {
	gen := &scriptedGenerator{steps: []step{{reply: helloReply}}}
	svc := New(gen, key("k"), testConfig(), WithDetector(detector.New()), WithLogger(quietLogger))

	_, err := svc.Translate(context.Background(), internal.TranslationRequest{
		Text:       "Ciao, questa è una prova in italiano e spero che funzioni.",
		SourceLang: "auto",
		TargetLang: "es",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompts[0], "from Italian to Spanish") {
		t.Errorf("expected detected source in prompt, got %q", gen.prompts[0])
	}
}

func TestTranslate_ConcurrentRequests(t *testing.T) {
	gen := &scriptedGenerator{}
	for i := 0; i < 20; i++ {
		gen.steps = append(gen.steps, step{reply: helloReply})
	}
	svc := New(gen, key("k"), testConfig(), WithLogger(quietLogger))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Translate(context.Background(), internal.TranslationRequest{Text: "Ciao mondo", SourceLang: "it", TargetLang: "es"})
			if err == nil && res.Translation != "Hola mundo" {
				err = errors.New("unexpected translation " + res.Translation)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

type blockingGenerator struct {
	calls int
}

func (g *blockingGenerator) Name() string         { return "gemini" }
func (g *blockingGenerator) RequiresAPIKey() bool { return true }

func (g *blockingGenerator) Generate(ctx context.Context, cfg generator.Config, prompt string) (string, error) {
	g.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected KindUnknown for foreign errors")
	}
	wrapped := &Error{Kind: KindTranslationFailed, Message: "m", Err: io.EOF}
	if KindOf(wrapped) != KindTranslationFailed {
		t.Error("expected KindTranslationFailed")
	}
	if KindTranslationFailed.String() != "translation_failed" {
		t.Errorf("unexpected kind string %q", KindTranslationFailed.String())
	}
}

func TestBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{7, 32 * time.Second},
		{64, 32 * time.Second},
		{1000, 32 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(base, tt.retry); got != tt.want {
			t.Errorf("backoff(%v, %d): expected %v, got %v", base, tt.retry, tt.want, got)
		}
	}
}
