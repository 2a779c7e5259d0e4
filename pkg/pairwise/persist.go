package pairwise

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"func-align/pkg/alignment"
	"func-align/pkg/parcellation"
	"func-align/pkg/piecewise"
)

// modelSchema is the on-disk model file format version.
const modelSchema = 1

// modelFile is the persisted form of a fitted Alignment.
type modelFile struct {
	Schema   int        `json:"schema"`
	Method   string     `json:"method"`
	Scaling  bool       `json:"scaling,omitempty"`
	Features int        `json:"features"`
	Seed     uint64     `json:"seed"`
	Bags     []bagModel `json:"bags"`
}

// bagModel holds one bag's labeling and per-region fitted state.
type bagModel struct {
	Seed    uint64            `json:"seed"`
	Labels  []int             `json:"labels"`
	Regions []json.RawMessage `json:"regions"`
}

// Save writes the fitted model to a JSON file.
func (a *Alignment) Save(path string) error {
	if !a.fitted {
		return &alignment.NotFittedError{Op: "pairwise save"}
	}

	file := modelFile{
		Schema:   modelSchema,
		Method:   a.method.String(),
		Scaling:  a.opts.Scaling,
		Features: a.features,
		Seed:     a.opts.Seed,
		Bags:     make([]bagModel, len(a.bags)),
	}
	for b, est := range a.bags {
		model := est.Model()
		bag := bagModel{
			Seed:    a.seeds[b],
			Labels:  append([]int(nil), model.Labels...),
			Regions: make([]json.RawMessage, len(model.Transforms)),
		}
		for id, tr := range model.Transforms {
			payload, err := json.Marshal(tr)
			if err != nil {
				return fmt.Errorf("pairwise save: bag %d region %d: %w", b, id, err)
			}
			bag.Regions[id] = payload
		}
		file.Bags[b] = bag
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("pairwise save: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a model file and returns a fitted Alignment that transforms
// identically to the one that was saved. A nil logger disables logging.
func Load(path string, logger *zap.Logger) (*Alignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("pairwise load: %w", err)
	}
	if file.Schema != modelSchema {
		return nil, &alignment.InvalidConfigError{
			Op:     "pairwise load",
			Reason: fmt.Sprintf("unsupported model schema %d", file.Schema),
		}
	}
	method, err := alignment.ParseMethod(file.Method)
	if err != nil {
		return nil, fmt.Errorf("pairwise load: %w", err)
	}
	if len(file.Bags) == 0 {
		return nil, &alignment.InvalidConfigError{Op: "pairwise load", Reason: "model has no bags"}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	bags := make([]*piecewise.Estimator, len(file.Bags))
	seeds := make([]uint64, len(file.Bags))
	for b, bag := range file.Bags {
		labels := parcellation.Labeling(append([]int(nil), bag.Labels...))
		if err := labels.Validate(file.Features); err != nil {
			return nil, fmt.Errorf("pairwise load: bag %d: %w", b, err)
		}
		if len(bag.Regions) != labels.NumRegions() {
			return nil, &alignment.InvalidConfigError{
				Op: "pairwise load",
				Reason: fmt.Sprintf("bag %d has %d region payloads for %d regions",
					b, len(bag.Regions), labels.NumRegions()),
			}
		}
		transforms := make([]alignment.Aligner, len(bag.Regions))
		for id, payload := range bag.Regions {
			al, err := alignment.New(method, alignment.DefaultOptions())
			if err != nil {
				return nil, fmt.Errorf("pairwise load: %w", err)
			}
			if err := json.Unmarshal(payload, al); err != nil {
				return nil, fmt.Errorf("pairwise load: bag %d region %d: %w", b, id, err)
			}
			transforms[id] = al
		}
		est, err := piecewise.FromModel(&piecewise.Model{Labels: labels, Transforms: transforms}, logger)
		if err != nil {
			return nil, fmt.Errorf("pairwise load: bag %d: %w", b, err)
		}
		bags[b] = est
		seeds[b] = bag.Seed
	}

	opts := DefaultOptions()
	opts.Method = file.Method
	opts.Scaling = file.Scaling
	opts.NPieces = parcellation.Labeling(file.Bags[0].Labels).NumRegions()
	opts.NBags = len(file.Bags)
	opts.Seed = file.Seed
	opts.Logger = logger

	return &Alignment{
		opts:     opts,
		method:   method,
		logger:   logger,
		fitted:   true,
		features: file.Features,
		seeds:    seeds,
		bags:     bags,
	}, nil
}
