package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the ERP sales report into the local database",
	Long: `Fetches the sales report for the given range and replaces the stored rows
in that range. With --file, a saved report is imported instead of calling the ERP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		file, _ := cmd.Flags().GetString("file")

		rng, err := parseRange(from, to)
		if err != nil {
			return err
		}

		db, repo, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		svc, configured := newSyncService(repo)
		ctx := context.Background()

		var res interface{}
		switch {
		case file != "":
			payload, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			res, err = svc.Import(ctx, rng, payload)
			if err != nil {
				return err
			}
		case !configured:
			return errors.New("ERP is not configured (set erp.base_url and erp.username, or erp.report=iospl) and no --file given")
		default:
			res, err = svc.Sync(ctx, rng)
			if err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().String("from", "", "Start date (YYYY-MM-DD or DD-MM-YYYY)")
	syncCmd.Flags().String("to", "", "End date (YYYY-MM-DD or DD-MM-YYYY)")
	syncCmd.Flags().StringP("file", "f", "", "Import a saved ERP report JSON instead of calling the ERP")
}
