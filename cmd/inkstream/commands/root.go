package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkstream/inkstream/go/pkg/cli"
	"github.com/inkstream/inkstream/go/pkg/docapi"
	"github.com/inkstream/inkstream/go/pkg/draftcache"
)

var (
	// Global flags
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "inkstream",
	Short: "Client for the streaming document generation backend",
	Long: `inkstream - stream AI-generated documents into an editable local model.

The client consumes the backend's one-way event stream, materializes the
document section by section, keeps partial output recoverable as local
drafts, and talks to the document and snippet REST services.

Configuration lives in ~/.inkstream/config.yaml as named contexts:

  inkstream config set-context prod --base-url https://api.example.com --api-key KEY
  inkstream config use-context prod

Examples:
  # Generate a new document and watch it stream
  inkstream generate --project acme --title "Q3 Report" --template technical

  # Regenerate section 2 of document 41 with a steer
  inkstream regen 41 --index 2 --hint "shorter, cite more"

  # Inspect what was generated
  inkstream doc get 41 --jq '.sections[2]'`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.inkstream/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml, json or raw")
}

// currentContext loads the active configuration context.
func currentContext() (*cli.Context, error) {
	cfg, err := cli.LoadConfigWithPath(configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Current()
}

// newAPIClient builds the REST client for the active context.
func newAPIClient() (*docapi.Client, *cli.Context, error) {
	ctx, err := currentContext()
	if err != nil {
		return nil, nil, err
	}
	if ctx.BaseURL == "" {
		return nil, nil, fmt.Errorf("context %q has no base_url", ctx.Name)
	}
	c, err := docapi.NewClient(docapi.Config{BaseURL: ctx.BaseURL, APIKey: ctx.APIKey})
	if err != nil {
		return nil, nil, err
	}
	return c, ctx, nil
}

// openCache opens the draft cache for the active context.
func openCache(ctx *cli.Context) (*draftcache.Cache, error) {
	dir, err := ctx.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	return draftcache.Open(draftcache.Options{Dir: dir})
}

// output renders a command result with the global format flag.
func output(result any) error {
	return cli.Output(result, cli.OutputOptions{Format: cli.OutputFormat(outputFormat)})
}
