package main

import (
	"delivery-analytics-service/internal/app"
	"delivery-analytics-service/internal/config"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var schemaTarget string

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Create the deliveries and render cache tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, closeFn, err := app.OpenStore(ctx, schemaTarget, cfg.Data)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.InitSchema(ctx); err != nil {
			return eris.Wrap(err, "init schema")
		}
		zap.L().Info("schema ready", zap.String("target", schemaTarget))
		return nil
	},
}

func init() {
	initSchemaCmd.Flags().StringVar(&schemaTarget, "target", config.Get("DBTOOL_TARGET", "sqlite"), "store to initialize: sqlite or postgres")
	rootCmd.AddCommand(initSchemaCmd)
}
