package service

import (
	"context"
	"fmt"
	"sync"

	"travelchat/internal/config"
	"travelchat/internal/logger"
)

// TranslationInput is what the translator sees: the schema description and
// the user's request.
type TranslationInput struct {
	Context string
	Query   string
}

// Translator turns a natural-language request into a filter predicate.
type Translator interface {
	Invoke(ctx context.Context, in TranslationInput) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, in TranslationInput) (string, error)

func (f TranslatorFunc) Invoke(ctx context.Context, in TranslationInput) (string, error) {
	return f(ctx, in)
}

// TranslatorFactory builds a Translator. It runs at most once per handle.
type TranslatorFactory func() (Translator, error)

// TranslatorHandle constructs its translator on first use. Concurrent first
// callers share one construction; the outcome, client or error, is kept for
// the life of the handle.
type TranslatorHandle struct {
	factory TranslatorFactory

	once       sync.Once
	translator Translator
	err        error
}

func NewTranslatorHandle(factory TranslatorFactory) *TranslatorHandle {
	return &TranslatorHandle{factory: factory}
}

// StaticTranslator returns a handle that always yields t.
func StaticTranslator(t Translator) *TranslatorHandle {
	return NewTranslatorHandle(func() (Translator, error) { return t, nil })
}

// Get returns the translator, building it on the first call.
func (h *TranslatorHandle) Get() (Translator, error) {
	h.once.Do(func() {
		if h.factory == nil {
			h.err = fmt.Errorf("no translator configured")
			return
		}
		h.translator, h.err = h.factory()
		if h.err == nil && h.translator == nil {
			h.err = fmt.Errorf("translator factory returned nil")
		}
	})
	return h.translator, h.err
}

// NewOpenAITranslatorFactory returns a factory for the OpenAI-compatible
// client. A missing API key surfaces on first use, not at startup, so the
// firstcall listing keeps working without one.
func NewOpenAITranslatorFactory(cfg config.LLMConfig) TranslatorFactory {
	return func() (Translator, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY (or GROQ_API_KEY) is required for queries other than firstcall")
		}
		client := NewOpenAIClient(&cfg, FilterPromptTemplate)
		logger.Get().Info("translation client initialized", "api_base", cfg.APIBase, "model", cfg.Model)
		return client, nil
	}
}
