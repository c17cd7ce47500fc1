package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inkstream/inkstream/go/pkg/docapi"
)

var snippetsCmd = &cobra.Command{
	Use:   "snippets",
	Short: "Search, resolve and pin evidence snippets",
}

var (
	snipDocID int64
	snipTopK  int
)

var snippetsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search evidence snippets for a section query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := newAPIClient()
		if err != nil {
			return err
		}
		sns, err := api.SearchSnippets(cmd.Context(), docapi.SnippetQuery{
			DocID:        snipDocID,
			SectionQuery: args[0],
			TopK:         snipTopK,
		})
		if err != nil {
			return err
		}
		return output(sns)
	},
}

var snippetsResolveCmd = &cobra.Command{
	Use:   "resolve <id>...",
	Short: "Resolve snippet ids to their text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int, 0, len(args))
		for _, a := range args {
			id, err := strconv.Atoi(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		api, _, err := newAPIClient()
		if err != nil {
			return err
		}
		sns, err := api.SnippetsByIDs(cmd.Context(), ids)
		if err != nil {
			return err
		}
		return output(sns)
	},
}

var pinSectionIndex int

var snippetsPinCmd = &cobra.Command{
	Use:   "pin <snippet-id>",
	Short: "Pin a snippet to a document section for regeneration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pinOrUnpin(cmd, args[0], true)
	},
}

var snippetsUnpinCmd = &cobra.Command{
	Use:   "unpin <snippet-id>",
	Short: "Remove a snippet pin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pinOrUnpin(cmd, args[0], false)
	},
}

func pinOrUnpin(cmd *cobra.Command, arg string, pin bool) error {
	snippetID, err := strconv.Atoi(arg)
	if err != nil {
		return err
	}
	api, _, err := newAPIClient()
	if err != nil {
		return err
	}
	if pin {
		return api.PinSnippet(cmd.Context(), snipDocID, pinSectionIndex, snippetID)
	}
	return api.UnpinSnippet(cmd.Context(), snipDocID, pinSectionIndex, snippetID)
}

func init() {
	snippetsCmd.PersistentFlags().Int64Var(&snipDocID, "doc", 0, "document id")
	snippetsSearchCmd.Flags().IntVar(&snipTopK, "topk", 6, "number of results")
	snippetsPinCmd.Flags().IntVar(&pinSectionIndex, "section", 0, "section index")
	snippetsUnpinCmd.Flags().IntVar(&pinSectionIndex, "section", 0, "section index")

	snippetsCmd.AddCommand(snippetsSearchCmd, snippetsResolveCmd, snippetsPinCmd, snippetsUnpinCmd)
	rootCmd.AddCommand(snippetsCmd)
}
