package main

import (
	"delivery-analytics-service/internal/app"
	"delivery-analytics-service/internal/regression"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	trainOut   string
	trainRidge float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a linear delivery-time model on the configured dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		repo, closeFn, err := app.OpenRepository(ctx, cfg.Data)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := repo.ListDeliveries(ctx)
		if err != nil {
			return eris.Wrap(err, "train: load dataset")
		}

		model, err := regression.Train(res.Rows, regression.TrainOptions{Ridge: trainRidge})
		if err != nil {
			return err
		}

		out := trainOut
		if out == "" {
			out = cfg.Model.Path
		}
		if err := regression.Save(out, model); err != nil {
			return err
		}

		zap.L().Info("model written",
			zap.String("path", out),
			zap.Int("rows", len(res.Rows)),
			zap.Int("features", len(model.FeatureNames)),
		)
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainOut, "out", "", "artifact path, .json or .yaml (defaults to model.path)")
	trainCmd.Flags().Float64Var(&trainRidge, "ridge", 0, "L2 penalty; 0 uses the default")
	rootCmd.AddCommand(trainCmd)
}
