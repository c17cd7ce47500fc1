package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkstream/inkstream/go/pkg/docstream"
	"github.com/inkstream/inkstream/go/pkg/outline"
	"github.com/inkstream/inkstream/go/pkg/session"
)

var (
	regenIndex   int
	regenHint    string
	regenModel   string
	regenSystem  string
	regenNoDraft bool
)

var regenCmd = &cobra.Command{
	Use:   "regen <doc-id>",
	Short: "Regenerate one section of an existing document",
	Long: `Regenerate a single section of an existing document and watch it stream.

The document is fetched first so the regenerated section lands inside the
current outline; untouched sections are preserved verbatim. A --hint steers
the rewrite without editing the prompt templates.

Example:
  inkstream regen 41 --index 2 --hint "shorter, cite more"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		api, ctx, err := newAPIClient()
		if err != nil {
			return err
		}
		base := ctx.StreamBase()
		if base == "" {
			return fmt.Errorf("context %q has no base_url or stream_url", ctx.Name)
		}

		doc, err := api.GetDocument(cmd.Context(), id)
		if err != nil {
			return err
		}
		o, err := parseContent(doc.Content)
		if err != nil {
			return fmt.Errorf("document %d has unparseable content: %w", id, err)
		}
		if regenIndex < 0 || regenIndex >= len(o.Sections) {
			return fmt.Errorf("section index %d out of range, document has %d sections", regenIndex, len(o.Sections))
		}

		req := docstream.RegenRequest{
			DocID:  id,
			Index:  regenIndex,
			Model:  firstNonEmpty(regenModel, ctx.Model),
			System: regenSystem,
			Hint:   regenHint,
		}
		streamURL, err := req.StreamURL(base)
		if err != nil {
			return err
		}

		store := outline.NewStore()
		store.Replace(o)
		store.SetFocus(regenIndex)
		return runWatchedSession(ctx, store, streamURL, regenNoDraft, session.Config{
			Store:         store,
			SectionIndex:  regenIndex,
			TotalSections: len(o.Sections),
		})
	},
}

func init() {
	regenCmd.Flags().IntVar(&regenIndex, "index", 0, "zero-based section index to regenerate")
	regenCmd.Flags().StringVar(&regenHint, "hint", "", "free-form steer for the rewrite")
	regenCmd.Flags().StringVar(&regenModel, "model", "", "generation model (default from context)")
	regenCmd.Flags().StringVar(&regenSystem, "system", "", "system prompt override")
	regenCmd.Flags().BoolVar(&regenNoDraft, "no-draft", false, "skip the draft cache snapshot on finish")
	regenCmd.MarkFlagRequired("index")
	rootCmd.AddCommand(regenCmd)
}
