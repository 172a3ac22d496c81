package main

import (
	"github.com/spf13/cobra"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/mongo"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes the local catalog relies on",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := global.GetDefaultTimer()
		defer cancel()

		client, db, err := connectMongo(ctx, cfg)
		if err != nil {
			return err
		}
		defer disconnectMongo(ctx, client)

		return mongo.EnsureIndexes(ctx, db, logger.Named("mongo"))
	},
}
