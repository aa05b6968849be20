package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"travelchat/internal/filter"
	"travelchat/internal/logger"
	"travelchat/internal/model"
	"travelchat/internal/repository"
	"travelchat/internal/utils"
)

// FirstCallQuery returns the unfiltered table without consulting the model.
const FirstCallQuery = "firstcall"

// DatasetProvider hands out the current dataset snapshot.
// *repository.DatasetStore implements it.
type DatasetProvider interface {
	Get(ctx context.Context) (*repository.Snapshot, error)
}

// ChatResult is a successful chat answer.
type ChatResult struct {
	Filters   []string
	Listings  []model.PublicListing
	Predicate string // empty for firstcall
}

// ChatService runs the query pipeline: translate, compile, evaluate, then
// resolve labels and project rows.
type ChatService struct {
	dataset     DatasetProvider
	translators *TranslatorHandle
	timeout     time.Duration

	mu         sync.Mutex
	promptSnap *repository.Snapshot
	promptCtx  string
}

// NewChatService wires the pipeline. translateTimeout bounds each model call;
// zero leaves only the request context.
func NewChatService(dataset DatasetProvider, translators *TranslatorHandle, translateTimeout time.Duration) *ChatService {
	return &ChatService{
		dataset:     dataset,
		translators: translators,
		timeout:     translateTimeout,
	}
}

// Chat answers one query. Every error it returns is a *Error.
func (s *ChatService) Chat(ctx context.Context, query string) (*ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ClassValidation, "Missing required field: query", nil)
	}

	log := logger.FromContext(ctx)

	snap, err := s.dataset.Get(ctx)
	if err != nil {
		log.Error("dataset unavailable", "error", err)
		return nil, newError(ClassLoad, "Dataset is unavailable", err)
	}

	if query == FirstCallQuery {
		log.Info("returning the initial table", "rows", snap.Table.Len())
		listings, err := NewProjector(snap.Schema.Projection()).Project(snap.Table.AllRows(), snap.Table)
		if err != nil {
			log.Error("projection failed", "error", err)
			return nil, err
		}
		return &ChatResult{Filters: []string{}, Listings: listings}, nil
	}

	predicate, err := s.translate(ctx, snap, query)
	if err != nil {
		log.Error("failed to generate filter from query", "error", err)
		return nil, err
	}
	log.Info("generated filter", "predicate", utils.TruncateString(predicate, 500))

	expr, err := filter.Compile(predicate, snap.Schema)
	if err != nil {
		log.Warn("generated filter rejected", "predicate", utils.TruncateString(predicate, 500), "error", err)
		return nil, newError(ClassCompile, err.Error(), err)
	}

	rows, err := evaluate(expr, snap.Table)
	if err != nil {
		log.Error("filter evaluation failed", "filter", expr.String(), "error", err)
		return nil, err
	}

	var (
		filters  []string
		listings []model.PublicListing
		g        errgroup.Group
	)
	g.Go(func() error {
		filters = NewDisplayNameResolver(snap.Schema).Resolve(expr.Columns())
		return nil
	})
	g.Go(func() error {
		var err error
		listings, err = NewProjector(snap.Schema.Projection()).Project(rows, snap.Table)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("projection failed", "error", err)
		return nil, err
	}

	log.Info("executed filter", "filter", expr.String(), "matched", len(rows))
	return &ChatResult{Filters: filters, Listings: listings, Predicate: predicate}, nil
}

func (s *ChatService) translate(ctx context.Context, snap *repository.Snapshot, query string) (string, error) {
	if s.translators == nil {
		return "", newError(ClassTranslation, "Translation service is not configured", nil)
	}
	translator, err := s.translators.Get()
	if err != nil {
		return "", newError(ClassTranslation, "Translation service is not configured", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	predicate, err := translator.Invoke(ctx, TranslationInput{Context: s.promptContext(snap), Query: query})
	if err != nil {
		msg := "Failed to generate a filter from the query"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Translation service timed out"
		}
		return "", newError(ClassTranslation, msg, err)
	}
	predicate = utils.StripCodeFences(predicate)
	if predicate == "" {
		return "", newError(ClassTranslation, "Failed to generate a filter from the query", fmt.Errorf("empty predicate"))
	}
	return predicate, nil
}

// promptContext describes the snapshot's columns once per snapshot.
func (s *ChatService) promptContext(snap *repository.Snapshot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.promptSnap != snap {
		s.promptCtx = DescribeColumns(snap.Schema, snap.Table)
		s.promptSnap = snap
	}
	return s.promptCtx
}

// evaluate runs the evaluator and reports a panic as an evaluation error.
func evaluate(expr *filter.Expression, table *model.Table) (rows filter.RowSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(ClassEvaluation, "Failed to evaluate the filter", fmt.Errorf("panic: %v", r))
		}
	}()
	return filter.Evaluate(expr, table), nil
}
