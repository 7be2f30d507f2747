package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/dev0xiinko/don-8-sub001/internal/legacy"
	"github.com/spf13/cobra"
)

func syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the flat campaign records with the campaign documents once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res, syncErr := a.sync.SyncCampaignStore(cmd.Context())
			if res != nil {
				printJSON(res)
			}
			return syncErr
		},
	}
}

func importCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a legacy JSON data directory, then sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = cfg.Legacy.DataDir
			}
			if dir == "" {
				return errors.New("no data directory: pass --dir or set legacy.data_dir")
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res, importErr := legacy.NewImporter(a.db, a.donations, a.sync).Import(cmd.Context(), dir)
			if res != nil {
				printJSON(res)
			}
			return importErr
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "legacy data directory (defaults to legacy.data_dir)")
	return cmd
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
