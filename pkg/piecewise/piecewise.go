// Package piecewise orchestrates region-wise functional alignment: it
// partitions the feature space into regions, fits one alignment method
// object per region on the matching column-subsets, and reassembles
// full-width matrices at transform time.
package piecewise

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"func-align/pkg/alignment"
	"func-align/pkg/parcellation"
)

// State is the estimator lifecycle. Fitted-ness is tracked explicitly so
// misuse fails with a clear error instead of a nil dereference.
type State int

const (
	Unfitted State = iota
	Fitting
	Fitted
)

func (s State) String() string {
	switch s {
	case Unfitted:
		return "unfitted"
	case Fitting:
		return "fitting"
	case Fitted:
		return "fitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures an Estimator.
type Options struct {
	// Method selects the per-region alignment variant.
	Method alignment.Method

	// Alignment carries the method-level knobs.
	Alignment alignment.Options

	// NPieces is the target region count when the labeling is computed
	// from the mask.
	NPieces int

	// Mask defines the feature geometry for partitioning. When nil, a
	// flat index mask over the fit-time feature count is used.
	Mask parcellation.Mask

	// Labels, when set, is used verbatim instead of partitioning. It is
	// validated against the fit-time feature count.
	Labels parcellation.Labeling

	// Seed fixes the partitioner's clustering.
	Seed uint64

	// Workers bounds concurrent region fits. Zero means GOMAXPROCS.
	Workers int

	// Logger receives fit progress at debug level. Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the default orchestration configuration: one
// region, identity alignment.
func DefaultOptions() Options {
	return Options{
		Method:    alignment.Identity,
		Alignment: alignment.DefaultOptions(),
		NPieces:   1,
	}
}

// Model owns what a fit produces: the region labeling and one fitted
// transformation per region id. It is read-only after fit and replaced
// wholesale by a refit.
type Model struct {
	Labels     parcellation.Labeling
	Transforms []alignment.Aligner
}

// Estimator fits independent alignments per region and applies them
// column-wise. Methods are not safe for concurrent use during Fit;
// Transform on a fitted estimator is read-only and safe to share.
type Estimator struct {
	opts   Options
	logger *zap.Logger
	state  State
	model  *Model
}

// NewEstimator validates the configuration and returns an unfitted
// estimator.
func NewEstimator(opts Options) (*Estimator, error) {
	if opts.Labels == nil && opts.NPieces < 1 {
		return nil, &alignment.InvalidConfigError{
			Op:     "piecewise",
			Reason: fmt.Sprintf("piece count %d must be at least 1", opts.NPieces),
		}
	}
	if opts.Workers < 0 {
		return nil, &alignment.InvalidConfigError{
			Op:     "piecewise",
			Reason: fmt.Sprintf("worker count %d must not be negative", opts.Workers),
		}
	}
	// Probe the method tag so an unknown variant fails here, not midway
	// through a fit.
	if _, err := alignment.New(opts.Method, opts.Alignment); err != nil {
		return nil, fmt.Errorf("piecewise: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{opts: opts, logger: logger, state: Unfitted}, nil
}

// FromModel wraps a previously produced model in a fitted estimator, for
// restoring persisted fits. The labeling must be internally consistent and
// the transform slice must cover every region.
func FromModel(model *Model, logger *zap.Logger) (*Estimator, error) {
	if model == nil {
		return nil, &alignment.InvalidConfigError{Op: "piecewise restore", Reason: "nil model"}
	}
	if len(model.Labels) == 0 {
		return nil, &alignment.InvalidConfigError{Op: "piecewise restore", Reason: "empty labeling"}
	}
	if err := model.Labels.Validate(len(model.Labels)); err != nil {
		return nil, fmt.Errorf("piecewise restore: %w", err)
	}
	if len(model.Transforms) != model.Labels.NumRegions() {
		return nil, &alignment.InvalidConfigError{
			Op: "piecewise restore",
			Reason: fmt.Sprintf("%d transforms for %d regions",
				len(model.Transforms), model.Labels.NumRegions()),
		}
	}
	for id, tr := range model.Transforms {
		if tr == nil {
			return nil, &alignment.InvalidConfigError{
				Op:     "piecewise restore",
				Reason: fmt.Sprintf("region %d has no transform", id),
			}
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		opts:   Options{Method: model.Transforms[0].Kind(), NPieces: model.Labels.NumRegions()},
		logger: logger,
		state:  Fitted,
		model:  model,
	}, nil
}

// State reports the lifecycle state.
func (e *Estimator) State() State { return e.state }

// Model returns the fitted model, or nil before fit. The model is owned
// by the estimator and must not be modified.
func (e *Estimator) Model() *Model { return e.model }

// Fit partitions the feature space and fits one alignment per region on
// the column-subsets of X and Y. Region fits are independent and run
// concurrently up to the worker bound.
func (e *Estimator) Fit(X, Y *mat.Dense) error {
	e.state = Fitting
	e.model = nil

	n, p := X.Dims()
	yr, yc := Y.Dims()
	if yr != n || yc != p {
		e.state = Unfitted
		return &alignment.ShapeMismatchError{
			Op:       "piecewise fit",
			WantRows: n, WantCols: p,
			GotRows: yr, GotCols: yc,
		}
	}

	labels, err := e.labeling(p)
	if err != nil {
		e.state = Unfitted
		return err
	}

	regions := labels.Regions()
	transforms := make([]alignment.Aligner, len(regions))
	workers := e.opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	var group errgroup.Group
	group.SetLimit(workers)
	for id, features := range regions {
		if len(features) == 0 {
			continue
		}
		group.Go(func() error {
			al, err := alignment.New(e.opts.Method, e.opts.Alignment)
			if err != nil {
				return err
			}
			regionStart := time.Now()
			if err := al.Fit(colSubset(X, features), colSubset(Y, features)); err != nil {
				return fmt.Errorf("region %d fit: %w", id, err)
			}
			e.logger.Debug("region fitted",
				zap.Int("region", id),
				zap.Int("features", len(features)),
				zap.Duration("elapsed", time.Since(regionStart)))
			transforms[id] = al
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		e.state = Unfitted
		return err
	}

	e.logger.Info("piecewise fit complete",
		zap.Int("samples", n),
		zap.Int("features", p),
		zap.Int("regions", len(regions)),
		zap.String("method", e.opts.Method.String()),
		zap.Duration("elapsed", time.Since(start)))

	e.model = &Model{Labels: labels, Transforms: transforms}
	e.state = Fitted
	return nil
}

// labeling resolves the region labeling for p features: a supplied one is
// validated and copied, otherwise the mask (or a flat default) is
// partitioned.
func (e *Estimator) labeling(p int) (parcellation.Labeling, error) {
	if e.opts.Labels != nil {
		if err := e.opts.Labels.Validate(p); err != nil {
			return nil, fmt.Errorf("piecewise fit: %w", err)
		}
		return append(parcellation.Labeling(nil), e.opts.Labels...), nil
	}

	mask := e.opts.Mask
	if mask == nil {
		mask = parcellation.FlatMask(p)
	}
	if mask.NumFeatures() != p {
		return nil, &alignment.ShapeMismatchError{
			Op:       "piecewise fit",
			WantRows: p, WantCols: 1,
			GotRows: mask.NumFeatures(), GotCols: 1,
		}
	}
	labels, err := parcellation.Partition(mask, parcellation.Options{
		NPieces: e.opts.NPieces,
		Seed:    e.opts.Seed,
		MaxIter: 100,
		Tol:     1e-6,
	})
	if err != nil {
		return nil, fmt.Errorf("piecewise fit: %w", err)
	}
	return labels, nil
}

// Transform applies each region's fitted transformation to the matching
// columns of X and writes the results back to their original positions.
func (e *Estimator) Transform(X *mat.Dense) (*mat.Dense, error) {
	if e.state != Fitted {
		return nil, &alignment.NotFittedError{Op: "piecewise transform"}
	}
	n, p := X.Dims()
	if p != len(e.model.Labels) {
		return nil, &alignment.ShapeMismatchError{
			Op:       "piecewise transform",
			WantRows: n, WantCols: len(e.model.Labels),
			GotRows: n, GotCols: p,
		}
	}

	out := mat.NewDense(n, p, nil)
	for id, features := range e.model.Labels.Regions() {
		if len(features) == 0 {
			continue
		}
		mapped, err := e.model.Transforms[id].Transform(colSubsetT(X, features))
		if err != nil {
			return nil, fmt.Errorf("region %d transform: %w", id, err)
		}
		for j, f := range features {
			for s := 0; s < n; s++ {
				out.Set(s, f, mapped.At(j, s))
			}
		}
	}
	return out, nil
}

// colSubset copies the chosen columns of m in sample-major orientation.
func colSubset(m *mat.Dense, features []int) *mat.Dense {
	rows, _ := m.Dims()
	sub := mat.NewDense(rows, len(features), nil)
	for j, f := range features {
		for i := 0; i < rows; i++ {
			sub.Set(i, j, m.At(i, f))
		}
	}
	return sub
}

// colSubsetT copies the chosen columns of m in feature-major orientation,
// the shape method objects transform.
func colSubsetT(m *mat.Dense, features []int) *mat.Dense {
	rows, _ := m.Dims()
	sub := mat.NewDense(len(features), rows, nil)
	for j, f := range features {
		for i := 0; i < rows; i++ {
			sub.Set(j, i, m.At(i, f))
		}
	}
	return sub
}
