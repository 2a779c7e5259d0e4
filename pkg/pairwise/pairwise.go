// Package pairwise is the top-level facade for aligning one subject's
// functional data onto another's. It wires the feature partitioner and the
// piecewise orchestrator behind a single flat configuration surface, adds
// optional bagging over repeated parcellations, and persists fitted models
// to disk.
package pairwise

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"func-align/pkg/alignment"
	"func-align/pkg/parcellation"
	"func-align/pkg/piecewise"
)

// Options is the flat configuration surface. Zero values fall back to the
// method-level defaults, so Options{Method: "ridge"} is usable as-is.
type Options struct {
	// Method names the per-region alignment variant: identity,
	// permutation, scaled_orthogonal, optimal_transport or ridge.
	Method string

	// NPieces is the number of regions the feature space is split into.
	NPieces int

	// Scaling enables the isotropic scale factor for scaled_orthogonal.
	Scaling bool

	// Reg is the entropic regularization for optimal_transport.
	Reg float64

	// SinkhornIterations bounds the transport plan iterations.
	SinkhornIterations int

	// RidgeAlphas is the cross-validated penalty grid for ridge.
	RidgeAlphas []float64

	// RidgeCVFolds is the fold count for the ridge penalty search.
	RidgeCVFolds int

	// NBags is the number of independent parcellation+fit rounds whose
	// transforms are averaged. 1 disables bagging.
	NBags int

	// Seed fixes parcellation; bag seeds are derived from it.
	Seed uint64

	// Workers bounds concurrency. Zero means GOMAXPROCS.
	Workers int

	// Mask supplies feature geometry for the partitioner. Nil means flat
	// feature indices.
	Mask parcellation.Mask

	// Logger receives progress logs. Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions mirrors the historical defaults: identity alignment on a
// single region, no bagging.
func DefaultOptions() Options {
	return Options{
		Method:  alignment.Identity.String(),
		NPieces: 1,
		Reg:     1.0,
		NBags:   1,
	}
}

// alignmentOptions folds the flat surface into method-level options,
// leaving untouched knobs at their defaults.
func (o Options) alignmentOptions() alignment.Options {
	a := alignment.DefaultOptions()
	a.Scaling = o.Scaling
	if o.Reg > 0 {
		a.Reg = o.Reg
	}
	if o.SinkhornIterations > 0 {
		a.SinkhornIterations = o.SinkhornIterations
	}
	if len(o.RidgeAlphas) > 0 {
		a.RidgeAlphas = append([]float64(nil), o.RidgeAlphas...)
	}
	if o.RidgeCVFolds > 0 {
		a.RidgeCVFolds = o.RidgeCVFolds
	}
	return a
}

// Alignment learns a mapping from a source subject onto a target subject
// and applies it to new source data.
type Alignment struct {
	opts   Options
	method alignment.Method
	logger *zap.Logger

	fitted   bool
	features int
	seeds    []uint64
	bags     []*piecewise.Estimator
}

// New validates the configuration and returns an unfitted facade.
func New(opts Options) (*Alignment, error) {
	method, err := alignment.ParseMethod(opts.Method)
	if err != nil {
		return nil, fmt.Errorf("pairwise: %w", err)
	}
	if opts.NPieces < 1 {
		return nil, &alignment.InvalidConfigError{
			Op:     "pairwise",
			Reason: fmt.Sprintf("piece count %d must be at least 1", opts.NPieces),
		}
	}
	if opts.NBags < 1 {
		return nil, &alignment.InvalidConfigError{
			Op:     "pairwise",
			Reason: fmt.Sprintf("bag count %d must be at least 1", opts.NBags),
		}
	}
	if opts.Workers < 0 {
		return nil, &alignment.InvalidConfigError{
			Op:     "pairwise",
			Reason: fmt.Sprintf("worker count %d must not be negative", opts.Workers),
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alignment{opts: opts, method: method, logger: logger}, nil
}

// Method returns the parsed alignment variant.
func (a *Alignment) Method() alignment.Method { return a.method }

// Fitted reports whether the facade holds a usable model.
func (a *Alignment) Fitted() bool { return a.fitted }

// NumFeatures returns the fitted feature count, or 0 before fit.
func (a *Alignment) NumFeatures() int { return a.features }

// Bags returns the fitted per-bag estimators. The slice and its contents
// are owned by the facade.
func (a *Alignment) Bags() []*piecewise.Estimator { return a.bags }

// Fit learns source-to-target mappings. With more than one bag, each bag
// partitions the features under its own derived seed and fits
// independently; bags run concurrently.
func (a *Alignment) Fit(X, Y *mat.Dense) error {
	a.fitted = false
	a.bags = nil

	n, p := X.Dims()
	yr, yc := Y.Dims()
	if yr != n || yc != p {
		return &alignment.ShapeMismatchError{
			Op:       "pairwise fit",
			WantRows: n, WantCols: p,
			GotRows: yr, GotCols: yc,
		}
	}

	seeds := bagSeeds(a.opts.Seed, a.opts.NBags)
	bags := make([]*piecewise.Estimator, a.opts.NBags)

	// Concurrency lives at one level: with a single bag the region loop
	// parallelizes, with several bags the bags do.
	bagWorkers := a.opts.Workers
	regionWorkers := a.opts.Workers
	if a.opts.NBags > 1 {
		regionWorkers = 1
	} else {
		bagWorkers = 1
	}
	if bagWorkers == 0 {
		bagWorkers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	var group errgroup.Group
	group.SetLimit(bagWorkers)
	for b := range bags {
		group.Go(func() error {
			est, err := piecewise.NewEstimator(piecewise.Options{
				Method:    a.method,
				Alignment: a.opts.alignmentOptions(),
				NPieces:   a.opts.NPieces,
				Mask:      a.opts.Mask,
				Seed:      seeds[b],
				Workers:   regionWorkers,
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}
			if err := est.Fit(X, Y); err != nil {
				return fmt.Errorf("bag %d: %w", b, err)
			}
			bags[b] = est
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	a.bags = bags
	a.seeds = seeds
	a.features = p
	a.fitted = true
	a.logger.Info("pairwise fit complete",
		zap.String("method", a.method.String()),
		zap.Int("samples", n),
		zap.Int("features", p),
		zap.Int("pieces", a.opts.NPieces),
		zap.Int("bags", a.opts.NBags),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Transform maps new source data into the target space. With several bags
// the result is the element-wise mean of the per-bag transforms.
func (a *Alignment) Transform(X *mat.Dense) (*mat.Dense, error) {
	if !a.fitted {
		return nil, &alignment.NotFittedError{Op: "pairwise transform"}
	}
	n, p := X.Dims()
	if p != a.features {
		return nil, &alignment.ShapeMismatchError{
			Op:       "pairwise transform",
			WantRows: n, WantCols: a.features,
			GotRows: n, GotCols: p,
		}
	}

	out, err := a.bags[0].Transform(X)
	if err != nil {
		return nil, fmt.Errorf("bag 0: %w", err)
	}
	for b := 1; b < len(a.bags); b++ {
		next, err := a.bags[b].Transform(X)
		if err != nil {
			return nil, fmt.Errorf("bag %d: %w", b, err)
		}
		out.Add(out, next)
	}
	if len(a.bags) > 1 {
		out.Scale(1/float64(len(a.bags)), out)
	}
	return out, nil
}

// bagSeeds derives one parcellation seed per bag. A single bag keeps the
// caller's seed verbatim so bagging off matches the plain piecewise path;
// several bags get decorrelated streams via a SplitMix64 finalizer.
func bagSeeds(seed uint64, nBags int) []uint64 {
	if nBags == 1 {
		return []uint64{seed}
	}
	seeds := make([]uint64, nBags)
	for b := range seeds {
		seeds[b] = splitMix64(seed + uint64(b))
	}
	return seeds
}

// splitMix64 is the canonical SplitMix64 avalanche step (Vigna 2014):
// nearby inputs diffuse into well-separated outputs.
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
