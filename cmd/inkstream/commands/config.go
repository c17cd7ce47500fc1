package commands

import (
	"github.com/spf13/cobra"

	"github.com/inkstream/inkstream/go/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration contexts",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfigWithPath(configPath)
		if err != nil {
			return err
		}
		// Redact keys for display.
		type ctxView struct {
			Name      string `yaml:"name"`
			BaseURL   string `yaml:"base_url,omitempty"`
			StreamURL string `yaml:"stream_url,omitempty"`
			Model     string `yaml:"model,omitempty"`
			HasAPIKey bool   `yaml:"has_api_key"`
		}
		view := struct {
			CurrentContext string    `yaml:"current_context"`
			Contexts       []ctxView `yaml:"contexts"`
		}{CurrentContext: cfg.CurrentContext}
		for _, c := range cfg.Contexts {
			view.Contexts = append(view.Contexts, ctxView{
				Name:      c.Name,
				BaseURL:   c.BaseURL,
				StreamURL: c.StreamURL,
				Model:     c.Model,
				HasAPIKey: c.APIKey != "",
			})
		}
		return output(view)
	},
}

var (
	setCtxAPIKey    string
	setCtxBaseURL   string
	setCtxStreamURL string
	setCtxModel     string
	setCtxDataDir   string
)

var configSetContextCmd = &cobra.Command{
	Use:   "set-context <name>",
	Short: "Add or update a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfigWithPath(configPath)
		if err != nil {
			return err
		}
		name := args[0]
		ctx := cfg.Contexts[name]
		if ctx == nil {
			ctx = &cli.Context{Name: name}
		}
		if cmd.Flags().Changed("api-key") {
			ctx.APIKey = setCtxAPIKey
		}
		if cmd.Flags().Changed("base-url") {
			ctx.BaseURL = setCtxBaseURL
		}
		if cmd.Flags().Changed("stream-url") {
			ctx.StreamURL = setCtxStreamURL
		}
		if cmd.Flags().Changed("model") {
			ctx.Model = setCtxModel
		}
		if cmd.Flags().Changed("data-dir") {
			ctx.DataDir = setCtxDataDir
		}
		cfg.SetContext(ctx)
		return cfg.Save()
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Switch the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfigWithPath(configPath)
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		return cfg.Save()
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Remove a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfigWithPath(configPath)
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		return cfg.Save()
	},
}

func init() {
	configSetContextCmd.Flags().StringVar(&setCtxAPIKey, "api-key", "", "API key")
	configSetContextCmd.Flags().StringVar(&setCtxBaseURL, "base-url", "", "REST base URL")
	configSetContextCmd.Flags().StringVar(&setCtxStreamURL, "stream-url", "", "stream base URL (defaults to base-url; ws:// or wss:// selects WebSocket transport)")
	configSetContextCmd.Flags().StringVar(&setCtxModel, "model", "", "default generation model")
	configSetContextCmd.Flags().StringVar(&setCtxDataDir, "data-dir", "", "local state directory")

	configCmd.AddCommand(configViewCmd, configSetContextCmd, configUseContextCmd, configDeleteContextCmd)
	rootCmd.AddCommand(configCmd)
}
