package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"func-align/internal/matio"
	"func-align/internal/metrics"
	"func-align/internal/version"
	"func-align/pkg/pairwise"
)

func newFitCmd(root *rootFlags) *cobra.Command {
	var (
		sourcePath string
		targetPath string
		outPath    string
		method     string
		pieces     int
		scaling    bool
		reg        float64
		bags       int
		seed       uint64
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit an alignment model from paired source and target data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			// Explicit flags beat environment and config file values.
			if cmd.Flags().Changed("method") {
				cfg.Method = method
			}
			if cmd.Flags().Changed("pieces") {
				cfg.Pieces = pieces
			}
			if cmd.Flags().Changed("scaling") {
				cfg.Scaling = scaling
			}
			if cmd.Flags().Changed("reg") {
				cfg.Reg = reg
			}
			if cmd.Flags().Changed("bags") {
				cfg.Bags = bags
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			x, err := matio.ReadCSV(sourcePath)
			if err != nil {
				return err
			}
			y, err := matio.ReadCSV(targetPath)
			if err != nil {
				return err
			}

			a, err := pairwise.New(cfg.Options(nil, logger))
			if err != nil {
				return err
			}
			if err := a.Fit(x, y); err != nil {
				return err
			}
			if err := a.Save(outPath); err != nil {
				return err
			}
			logger.Info("model saved", zap.String("path", outPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourcePath, "source", "", "source subject CSV (samples x features)")
	cmd.Flags().StringVar(&targetPath, "target", "", "target subject CSV (same shape as source)")
	cmd.Flags().StringVar(&outPath, "out", "", "output model file")
	cmd.Flags().StringVar(&method, "method", "identity", "alignment method: identity, permutation, scaled_orthogonal, optimal_transport or ridge")
	cmd.Flags().IntVar(&pieces, "pieces", 1, "number of feature regions fitted independently")
	cmd.Flags().BoolVar(&scaling, "scaling", false, "enable the isotropic scale for scaled_orthogonal")
	cmd.Flags().Float64Var(&reg, "reg", 1.0, "entropic regularization for optimal_transport")
	cmd.Flags().IntVar(&bags, "bags", 1, "number of averaged parcellation+fit rounds")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "parcellation seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "fit concurrency (0 = all cores)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newTransformCmd(root *rootFlags) *cobra.Command {
	var (
		modelPath string
		inPath    string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Apply a fitted model to new source data",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := pairwise.Load(modelPath, logger)
			if err != nil {
				return err
			}
			x, err := matio.ReadCSV(inPath)
			if err != nil {
				return err
			}
			out, err := a.Transform(x)
			if err != nil {
				return err
			}
			if err := matio.WriteCSV(outPath, out); err != nil {
				return err
			}
			logger.Info("prediction written", zap.String("path", outPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "fitted model file")
	cmd.Flags().StringVar(&inPath, "in", "", "source CSV to transform")
	cmd.Flags().StringVar(&outPath, "out", "", "output CSV")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newScoreCmd(root *rootFlags) *cobra.Command {
	var (
		modelPath  string
		sourcePath string
		targetPath string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a fitted model on held-out source and target data",
		Long: `Score predicts the target from the source through the fitted model and
prints voxelwise R² summary statistics (clipped below at -1), next to the
unaligned baseline of reading the source as the prediction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := pairwise.Load(modelPath, logger)
			if err != nil {
				return err
			}
			x, err := matio.ReadCSV(sourcePath)
			if err != nil {
				return err
			}
			y, err := matio.ReadCSV(targetPath)
			if err != nil {
				return err
			}

			pred, err := a.Transform(x)
			if err != nil {
				return err
			}
			aligned, err := metrics.R2Voxelwise(y, pred)
			if err != nil {
				return err
			}
			baseline, err := metrics.R2Voxelwise(y, x)
			if err != nil {
				return err
			}

			cmd.Printf("baseline %s\n", metrics.Summarize(baseline))
			cmd.Printf("aligned  %s\n", metrics.Summarize(aligned))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "fitted model file")
	cmd.Flags().StringVar(&sourcePath, "source", "", "held-out source CSV")
	cmd.Flags().StringVar(&targetPath, "target", "", "held-out target CSV")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	}
}
