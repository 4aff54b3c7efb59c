// Package query executes board queries: it resolves a source clause into
// documents, filters them, groups them along the configured axes and renders
// the result. A query never mutates the vault.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/axis"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/domain/document"
	"github.com/kailas-cloud/boardex/internal/domain/filter"
	"github.com/kailas-cloud/boardex/internal/domain/props"
	"github.com/kailas-cloud/boardex/internal/metrics"
)

// Service runs board queries.
type Service struct {
	repo   Repository
	loader Loader
	logger *zap.Logger
}

// New creates a query service.
func New(repo Repository, loader Loader, logger *zap.Logger) *Service {
	return &Service{repo: repo, loader: loader, logger: logger}
}

// Run executes one query pass. Document-level problems (unreadable files,
// failing transforms) degrade the result instead of failing it; only context
// cancellation aborts the pass with an error. Non-fatal problems are
// reported in the result's Errors.
func (s *Service) Run(ctx context.Context, spec board.Spec) (board.Result, error) {
	start := time.Now()

	res, err := s.run(ctx, spec)

	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil || len(res.Errors()) > 0 {
		status = "error"
	}
	metrics.QueriesTotal.WithLabelValues(status).Inc()

	return res, err
}

func (s *Service) run(ctx context.Context, spec board.Spec) (board.Result, error) {
	xT := s.compileTransform(spec.X())
	yT := s.compileTransform(spec.Y())

	var errs []string

	paths, err := s.repo.List(ctx, spec.Source())
	if err != nil {
		if ctxDone(err) {
			return board.Result{}, err
		}
		errs = append(errs, fmt.Sprintf("resolve source %q: %v", spec.Source(), err))
		return board.NewResult(nil, board.AxisResult{}, board.AxisResult{}, nil, errs), nil
	}

	docs, loadErrs, err := s.load(ctx, paths, spec.Where())
	if err != nil {
		return board.Result{}, err
	}
	errs = append(errs, loadErrs...)

	if spec.HideUnassigned() {
		docs = assignedOnly(docs, spec, xT, yT)
	}

	xRes := s.groupAxis(docs, spec.X(), xT)
	yRes := s.groupAxis(docs, spec.Y(), yT)

	docs, xRes, yRes, errs = s.applySetFilter(spec, docs, xRes, yRes, xT, yT, errs)

	sortDocs(docs, spec.Sort())
	styles := s.applyCardStyle(docs, spec.CardStyle())

	return board.NewResult(docs, xRes, yRes, styles, errs), nil
}

// load reads and filters the listed documents. Unavailable documents are
// skipped silently; any other load failure stops the pass and is reported,
// keeping whatever was already collected.
func (s *Service) load(ctx context.Context, paths []string, where string) ([]document.Document, []string, error) {
	pre := filter.Parse(where)

	docs := make([]document.Document, 0, len(paths))
	var errs []string
	for _, p := range paths {
		bag, err := s.loader.Load(ctx, p)
		if err != nil {
			if errors.Is(err, domain.ErrUnavailable) {
				continue
			}
			if ctxDone(err) {
				return nil, nil, err
			}
			errs = append(errs, fmt.Sprintf("load %s: %v", p, err))
			break
		}
		if !pre.Matches(bag) {
			continue
		}
		doc, err := document.New(p, bag)
		if err != nil {
			errs = append(errs, fmt.Sprintf("document %s: %v", p, err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs, nil
}

// groupAxis buckets the documents' raw values along one axis. Multi-valued
// properties contribute one raw value per element.
func (s *Service) groupAxis(docs []document.Document, ax board.Axis, t axis.Transform) board.AxisResult {
	if !ax.Defined() {
		return board.AxisResult{}
	}

	discovered := make(map[string]struct{})
	var raws []any
	for i := range docs {
		raw, ok := docs[i].Property(ax.Path())
		if !ok {
			continue
		}
		for _, v := range elements(raw) {
			raws = append(raws, v)
			label, err := t.Label(v)
			if err != nil {
				metrics.TransformFailuresTotal.WithLabelValues("runtime").Inc()
				s.logger.Warn("Transform failed; value used untransformed",
					zap.String("axis", ax.Path()),
					zap.String("document", docs[i].Path()),
					zap.Error(err),
				)
			}
			discovered[label] = struct{}{}
		}
	}

	buckets := axis.Domain(ax.Values(), discovered)
	return board.NewAxisResult(buckets, raws, axis.BuildReverse(raws, t))
}

// applySetFilter runs the whole-set filter, if configured, and regroups both
// axes when it replaces the document set.
func (s *Service) applySetFilter(
	spec board.Spec,
	docs []document.Document,
	xRes, yRes board.AxisResult,
	xT, yT axis.Transform,
	errs []string,
) ([]document.Document, board.AxisResult, board.AxisResult, []string) {
	sf, err := compileSetFilter(spec.Filter())
	if err != nil {
		errs = append(errs, err.Error())
		return docs, xRes, yRes, errs
	}
	if sf == nil {
		return docs, xRes, yRes, errs
	}

	kept, replaced, err := sf.apply(docs)
	if err != nil {
		errs = append(errs, err.Error())
		return docs, xRes, yRes, errs
	}
	if !replaced {
		s.logger.Debug("Whole-set filter returned a non-sequence; set unchanged",
			zap.String("filter", spec.Filter()))
		return docs, xRes, yRes, errs
	}

	return kept, s.groupAxis(kept, spec.X(), xT), s.groupAxis(kept, spec.Y(), yT), errs
}

func (s *Service) compileTransform(ax board.Axis) axis.Transform {
	t := axis.CompileTransform(ax.Transform())
	if t.Kind() == axis.Invalid {
		metrics.TransformFailuresTotal.WithLabelValues("compile").Inc()
		s.logger.Warn("Transform does not compile; axis stays untransformed",
			zap.String("axis", ax.Path()),
			zap.Error(t.CompileErr()),
		)
	}
	return t
}

func (s *Service) applyCardStyle(docs []document.Document, source string) map[string]string {
	cs, err := compileCardStyle(source)
	if err != nil {
		s.logger.Warn("Card-style does not compile; styles skipped", zap.Error(err))
		return nil
	}
	if cs == nil {
		return nil
	}

	styles := make(map[string]string, len(docs))
	for i := range docs {
		style, err := cs.apply(docs[i])
		if err != nil {
			s.logger.Debug("Card-style failed for document",
				zap.String("document", docs[i].Path()),
				zap.Error(err),
			)
			continue
		}
		if style != "" {
			styles[docs[i].Path()] = style
		}
	}
	if len(styles) == 0 {
		return nil
	}
	return styles
}

// assignedOnly keeps documents carrying a value on every defined axis. With
// an explicit bucket domain at least one of the document's labels must fall
// inside it.
func assignedOnly(docs []document.Document, spec board.Spec, xT, yT axis.Transform) []document.Document {
	kept := make([]document.Document, 0, len(docs))
	for i := range docs {
		if assigned(docs[i], spec.X(), xT) && assigned(docs[i], spec.Y(), yT) {
			kept = append(kept, docs[i])
		}
	}
	return kept
}

func assigned(d document.Document, ax board.Axis, t axis.Transform) bool {
	if !ax.Defined() {
		return true
	}
	raw, ok := d.Property(ax.Path())
	if !ok {
		return false
	}
	explicit := ax.Values()
	if len(explicit) == 0 {
		return true
	}
	for _, v := range elements(raw) {
		label, _ := t.Label(v)
		for _, b := range explicit {
			if label == b {
				return true
			}
		}
	}
	return false
}

// sortDocs orders documents by the sort property. Ties keep their relative
// order; documents without the property sort first.
func sortDocs(docs []document.Document, s board.Sort) {
	if s.IsZero() {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		vi, _ := docs[i].Property(s.By())
		vj, _ := docs[j].Property(s.By())
		cmp := props.Compare(vi, vj)
		if s.Desc() {
			return cmp > 0
		}
		return cmp < 0
	})
}

// elements expands a sequence property into its members; scalars group as
// themselves.
func elements(v any) []any {
	if seq, ok := v.([]any); ok {
		return seq
	}
	return []any{v}
}

func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
