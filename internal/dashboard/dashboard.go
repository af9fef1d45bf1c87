// Package dashboard wires the catalog, analysis client, normalizer and
// session state into the user-facing flow.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackzampolin/regdesk/internal/auth"
	"github.com/jackzampolin/regdesk/internal/config"
	"github.com/jackzampolin/regdesk/internal/gateway"
	"github.com/jackzampolin/regdesk/internal/normalize"
	"github.com/jackzampolin/regdesk/internal/session"
	"github.com/jackzampolin/regdesk/internal/types"
)

// Status messages shown to users.
const (
	MessageProcessing = "Generando análisis..."
	MessageFailed     = "Error al generar análisis"
	MessageEmpty      = "El servicio devolvió un resultado vacío"
	MessageComplete   = "Análisis completado"
)

var (
	// ErrNoSelection rejects an analysis with no selected documents.
	ErrNoSelection = errors.New("no documents selected")

	// ErrNoValidNumbers means none of the selected documents has a number.
	ErrNoValidNumbers = errors.New("selected documents have no valid document numbers")

	// ErrEmptyResult means the service answered with an empty result.
	ErrEmptyResult = errors.New("analysis service returned an empty result")

	// ErrUnknownDocument means the id is not in the session's catalog.
	ErrUnknownDocument = errors.New("document not found in catalog")
)

// Catalog lists available documents.
type Catalog interface {
	ListDocuments(ctx context.Context) ([]types.Document, error)
}

// Analyzer submits documents for analysis.
type Analyzer interface {
	Submit(ctx context.Context, numbers []string) (any, error)
}

// Tokener obtains gateway tokens.
type Tokener interface {
	Token(ctx context.Context) (string, error)
}

// Service runs dashboard actions against a session.
type Service struct {
	catalog    Catalog
	analyzer   Analyzer
	tokens     Tokener
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

// Config holds Service dependencies.
type Config struct {
	Catalog    Catalog
	Analyzer   Analyzer
	Tokens     Tokener
	Normalizer *normalize.Normalizer
	Logger     *slog.Logger
}

// New creates a Service.
func New(cfg Config) *Service {
	n := cfg.Normalizer
	if n == nil {
		n = normalize.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:    cfg.Catalog,
		analyzer:   cfg.Analyzer,
		tokens:     cfg.Tokens,
		normalizer: n,
		logger:     logger,
	}
}

// NewFromConfig builds the token source, gateway client and normalizer from
// configuration, expanding ${ENV_VAR} references first.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Resolved()
	if logger == nil {
		logger = slog.Default()
	}

	tokens := auth.NewTokenSource(auth.Credentials{
		TokenURL:     cfg.API.AuthURL,
		ClientID:     cfg.Cognito.ClientID,
		ClientSecret: cfg.Cognito.ClientSecret,
		Scope:        cfg.Cognito.Scope,
	}, auth.WithLogger(logger))

	client := gateway.NewClient(gateway.Config{
		DocumentsURL: cfg.API.DocumentsURL,
		GenerateURL:  cfg.API.GenerateURL,
		Timeout:      cfg.Timeout(),
		Tokens:       tokens,
		Logger:       logger,
	})

	normalizer := normalize.New(
		normalize.WithPlaceholder(cfg.Normalizer.Placeholder),
		normalize.WithAliases(cfg.Normalizer.Aliases),
	)

	return New(Config{
		Catalog:    client,
		Analyzer:   client,
		Tokens:     tokens,
		Normalizer: normalizer,
		Logger:     logger,
	}), nil
}

// Placeholder returns the text used for empty sections.
func (s *Service) Placeholder() string {
	return s.normalizer.Placeholder()
}

// CheckAuth verifies that a token can be obtained.
func (s *Service) CheckAuth(ctx context.Context) error {
	if s.tokens == nil {
		return nil
	}
	_, err := s.tokens.Token(ctx)
	return err
}

// ListDocuments fetches the catalog without touching any session.
func (s *Service) ListDocuments(ctx context.Context) ([]types.Document, error) {
	return s.catalog.ListDocuments(ctx)
}

// LoadDocuments returns the session's cached catalog, fetching it when the
// cache is empty or refresh is set. A fetch failure is not fatal: it returns
// an empty list and the failure as warning.
func (s *Service) LoadDocuments(ctx context.Context, sess *session.Session, refresh bool) ([]types.Document, error) {
	if !refresh {
		if docs := sess.Documents(); len(docs) > 0 {
			return docs, nil
		}
	}

	docs, err := s.catalog.ListDocuments(ctx)
	if err != nil {
		s.logger.Warn("could not load documents", "session", sess.ID(), "error", err)
		return []types.Document{}, err
	}
	sess.SetDocuments(docs)
	return docs, nil
}

// AddDocument adds a catalog document to the session's selection by id.
func (s *Service) AddDocument(ctx context.Context, sess *session.Session, id string) (session.AddResult, types.Document, error) {
	if _, err := s.LoadDocuments(ctx, sess, false); err != nil {
		return session.DuplicateRejected, types.Document{}, err
	}
	doc, ok := sess.FindDocument(id)
	if !ok {
		return session.DuplicateRejected, types.Document{}, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	return sess.Add(doc), doc, nil
}

// Analyze submits the session's selection and stores the normalized result.
// Preconditions are checked before any network call. On failure the session
// is left in the error state. An outcome that arrives after the selection
// was changed is dropped; a dropped result returns session.ErrSelectionChanged.
func (s *Service) Analyze(ctx context.Context, sess *session.Session) (*normalize.Result, error) {
	selection := sess.Selection()
	if len(selection) == 0 {
		return nil, ErrNoSelection
	}

	numbers := make([]string, 0, len(selection))
	for _, doc := range selection {
		if doc.Number == "" {
			s.logger.Warn("skipping document without number", "session", sess.ID(), "document", doc.Name)
			continue
		}
		numbers = append(numbers, doc.Number)
	}
	if len(numbers) == 0 {
		return nil, ErrNoValidNumbers
	}

	gen, err := sess.BeginAnalysis(MessageProcessing)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("session", sess.ID(), "documents", len(numbers))
	logger.Info("analysis started")

	raw, err := s.analyzer.Submit(ctx, numbers)
	if err != nil {
		if !sess.Fail(gen, session.Transition(session.StatusError, 0, MessageFailed)) {
			logger.Info("selection changed during analysis, failure discarded")
		}
		logger.Error("analysis failed", "error", err)
		return nil, err
	}

	if isEmpty(raw) {
		if !sess.Fail(gen, session.Transition(session.StatusError, 0, MessageEmpty)) {
			logger.Info("selection changed during analysis, empty result discarded")
		}
		logger.Warn("analysis returned empty result")
		return nil, ErrEmptyResult
	}

	result := s.normalizer.Normalize(raw)

	update := session.Transition(session.StatusComplete, 100, MessageComplete)
	if id, ok := analysisID(raw); ok {
		update.AnalysisID = &id
		update.SetAnalysisID = true
	}
	if !sess.Complete(gen, result, update) {
		logger.Warn("selection changed during analysis, result discarded")
		return nil, session.ErrSelectionChanged
	}

	logger.Info("analysis complete", "references", len(result.References))
	return result, nil
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// analysisID picks up an id the service may attach to the result.
func analysisID(raw any) (string, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{"analysis_id", "id_analisis"} {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case fmt.Stringer:
			return v.String(), true
		}
	}
	return "", false
}

// Holder holds the current Service so it can be swapped when configuration
// changes. A nil Service means the gateway is not configured.
type Holder struct {
	svc atomic.Pointer[Service]
}

// NewHolder creates a Holder with an optional initial service.
func NewHolder(svc *Service) *Holder {
	h := &Holder{}
	if svc != nil {
		h.svc.Store(svc)
	}
	return h
}

// Get returns the current service, or nil.
func (h *Holder) Get() *Service {
	if h == nil {
		return nil
	}
	return h.svc.Load()
}

// Set replaces the service.
func (h *Holder) Set(svc *Service) {
	h.svc.Store(svc)
}

// Reload rebuilds the service from cfg. On failure the current service is
// kept.
func (h *Holder) Reload(cfg *config.Config, logger *slog.Logger) error {
	svc, err := NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	h.Set(svc)
	return nil
}
