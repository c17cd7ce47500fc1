package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect the local draft cache",
	Long: `Inspect locally cached document drafts.

Every generation session snapshots its outline into the draft cache on
terminal events, including cancellation: partial output is a usable draft,
not garbage. Drafts live under the context's data directory.`,
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := currentContext()
		if err != nil {
			return err
		}
		cache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer cache.Close()

		drafts, err := cache.List()
		if err != nil {
			return err
		}
		type row struct {
			DocID     int64  `yaml:"doc_id" json:"doc_id"`
			Title     string `yaml:"title" json:"title"`
			Sections  int    `yaml:"sections" json:"sections"`
			State     string `yaml:"state" json:"state"`
			UpdatedAt string `yaml:"updated_at" json:"updated_at"`
		}
		rows := make([]row, 0, len(drafts))
		for _, d := range drafts {
			r := row{DocID: d.DocID, State: d.State, UpdatedAt: d.UpdatedAt.Local().Format("2006-01-02 15:04:05")}
			if d.Outline != nil {
				r.Title = d.Outline.Title
				r.Sections = len(d.Outline.Sections)
			}
			rows = append(rows, r)
		}
		return output(rows)
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Show a cached draft outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		ctx, err := currentContext()
		if err != nil {
			return err
		}
		cache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer cache.Close()

		d, err := cache.Load(id)
		if err != nil {
			return err
		}
		return output(d)
	},
}

var draftsRmCmd = &cobra.Command{
	Use:   "rm <doc-id>",
	Short: "Delete a cached draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		ctx, err := currentContext()
		if err != nil {
			return err
		}
		cache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Delete(id); err != nil {
			return err
		}
		fmt.Printf("deleted draft %d\n", id)
		return nil
	},
}

func init() {
	draftsCmd.AddCommand(draftsListCmd, draftsShowCmd, draftsRmCmd)
	rootCmd.AddCommand(draftsCmd)
}
