package main

import (
	"delivery-analytics-service/internal/adapters/dataset"
	"delivery-analytics-service/internal/app"
	"delivery-analytics-service/internal/config"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importFrom   string
	importTarget string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a CSV or XLSX snapshot into SQLite or Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		from := importFrom
		if from == "" {
			from = cfg.Data.Path
		}
		res, err := dataset.NewFileRepository(from).ListDeliveries(ctx)
		if err != nil {
			return eris.Wrap(err, "import: read snapshot")
		}

		store, closeFn, err := app.OpenStore(ctx, importTarget, cfg.Data)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.InitSchema(ctx); err != nil {
			return eris.Wrap(err, "import: init schema")
		}
		n, err := store.WriteDeliveries(ctx, res.Rows)
		if err != nil {
			return eris.Wrap(err, "import: write deliveries")
		}

		zap.L().Info("import complete",
			zap.String("from", from),
			zap.String("target", store.Source()),
			zap.Int64("written", n),
			zap.Int("skipped", res.Skipped),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFrom, "from", "", "CSV or XLSX file (defaults to data.path)")
	importCmd.Flags().StringVar(&importTarget, "target", config.Get("DBTOOL_TARGET", "sqlite"), "destination store: sqlite or postgres")
	rootCmd.AddCommand(importCmd)
}
