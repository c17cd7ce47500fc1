package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"github.com/inkstream/inkstream/go/pkg/cli"
	"github.com/inkstream/inkstream/go/pkg/docstream"
	"github.com/inkstream/inkstream/go/pkg/draftcache"
	"github.com/inkstream/inkstream/go/pkg/outline"
	"github.com/inkstream/inkstream/go/pkg/session"
)

var (
	genProject     string
	genTitle       string
	genTemplate    string
	genDescription string
	genModel       string
	genSystem      string
	genVarsFile    string
	genSchemaFile  string
	genSections    int
	genNoDraft     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Stream a new document from the backend",
	Long: `Stream a whole-document generation session and watch it live.

The command opens the backend's event stream, materializes sections as they
arrive and prints a progress line. Ctrl-C cancels the session; partial
output is still snapshotted into the draft cache unless --no-draft is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := currentContext()
		if err != nil {
			return err
		}
		base := ctx.StreamBase()
		if base == "" {
			return fmt.Errorf("context %q has no base_url or stream_url", ctx.Name)
		}

		vars, err := loadVars(genVarsFile, genSchemaFile)
		if err != nil {
			return err
		}

		req := docstream.GenerateRequest{
			Project:     genProject,
			Title:       genTitle,
			Template:    genTemplate,
			Description: genDescription,
			Model:       firstNonEmpty(genModel, ctx.Model),
			System:      genSystem,
			Variables:   vars,
		}
		streamURL, err := req.StreamURL(base)
		if err != nil {
			return err
		}

		store := outline.NewStore()
		return runWatchedSession(ctx, store, streamURL, genNoDraft, session.Config{
			Store:         store,
			SectionIndex:  session.WholeDocument,
			Title:         genTitle,
			Mode:          genTemplate,
			TotalSections: genSections,
		})
	},
}

func init() {
	generateCmd.Flags().StringVar(&genProject, "project", "", "project the document belongs to")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "document title")
	generateCmd.Flags().StringVar(&genTemplate, "template", "technical", "document template")
	generateCmd.Flags().StringVar(&genDescription, "description", "", "free-form description to steer generation")
	generateCmd.Flags().StringVar(&genModel, "model", "", "generation model (default from context)")
	generateCmd.Flags().StringVar(&genSystem, "system", "", "system prompt override")
	generateCmd.Flags().StringVar(&genVarsFile, "vars", "", "JSON file with template variables, passed through verbatim")
	generateCmd.Flags().StringVar(&genSchemaFile, "vars-schema", "", "JSON Schema file to validate --vars against before connecting")
	generateCmd.Flags().IntVar(&genSections, "sections", 0, "expected section count, for the progress estimate")
	generateCmd.Flags().BoolVar(&genNoDraft, "no-draft", false, "skip the draft cache snapshot on finish")
	generateCmd.MarkFlagRequired("project")
	generateCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(generateCmd)
}

// loadVars reads the template-variable bundle and, when a schema file is
// given, validates it client-side so a malformed bundle fails fast instead
// of mid-stream.
func loadVars(varsFile, schemaFile string) (json.RawMessage, error) {
	if varsFile == "" {
		if schemaFile != "" {
			return nil, fmt.Errorf("--vars-schema requires --vars")
		}
		return nil, nil
	}
	raw, err := os.ReadFile(varsFile)
	if err != nil {
		return nil, fmt.Errorf("read vars: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("vars file %s is not valid JSON", varsFile)
	}
	if schemaFile == "" {
		return json.RawMessage(raw), nil
	}

	schemaRaw, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read vars schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return nil, fmt.Errorf("parse vars schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve vars schema: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("parse vars: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("vars do not match schema: %w", err)
	}
	return json.RawMessage(raw), nil
}

// runWatchedSession drives one generation session to a terminal state with a
// live terminal view, then snapshots the result into the draft cache. Shared
// by generate and regen.
func runWatchedSession(cliCtx *cli.Context, store *outline.Store, streamURL string, noDraft bool, cfg session.Config) error {
	styles := cli.NewStyles(cli.DefaultTheme)

	terminal := make(chan session.Status, 1)
	cfg.OnStatus = func(st session.Status) {
		printStatus(styles, st)
		if st.State.Terminal() {
			select {
			case terminal <- st:
			default:
			}
		}
	}
	cfg.SlowAfter = 10 * time.Second
	cfg.OnSlow = func(elapsed time.Duration) {
		fmt.Printf("\r\033[K%s\n", styles.Status.Render(
			fmt.Sprintf("still generating after %s, the backend may be under load", elapsed.Round(time.Second))))
	}
	ctl := session.New(cfg)

	// Print each section heading the first time content lands in it.
	seen := make(map[int]bool)
	store.Subscribe(func(ch outline.Change) {
		if seen[ch.Index] {
			return
		}
		seen[ch.Index] = true
		if sec := store.Section(ch.Index); sec != nil && sec.Heading != "" {
			fmt.Printf("\r\033[K%s\n", styles.Heading.Render(fmt.Sprintf("## %s", sec.Heading)))
		}
	})

	header := http.Header{}
	if cliCtx.APIKey != "" {
		header.Set("Authorization", "Bearer "+cliCtx.APIKey)
	}
	client, err := docstream.NewClient(docstream.Config{
		URL:     streamURL,
		Handler: ctl.Handle,
		Header:  header,
	})
	if err != nil {
		return err
	}
	ctl.Bind(client)
	if err := client.Start(); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var final session.Status
	select {
	case final = <-terminal:
	case <-sigs:
		fmt.Printf("\r\033[K%s\n", styles.Status.Render("cancelling..."))
		ctl.Cancel()
		final = ctl.Status()
	}
	fmt.Print("\r\033[K")

	if !noDraft && store.Len() > 0 {
		if err := saveDraft(cliCtx, store, final); err != nil {
			fmt.Fprintf(os.Stderr, "warning: draft not cached: %v\n", err)
		}
	}

	switch final.State {
	case session.StateCompleted:
		fmt.Println(styles.Title.Render(fmt.Sprintf("done: document %d, %d sections in %s",
			final.DocID, store.Len(), final.Elapsed.Round(time.Second))))
		return nil
	case session.StateCancelled:
		fmt.Println(styles.Status.Render(fmt.Sprintf("cancelled, %d sections kept as draft", store.Len())))
		return nil
	case session.StatePaymentRequired:
		return fmt.Errorf("payment required: generation quota exhausted")
	default:
		return fmt.Errorf("generation failed: %s", final.ErrMessage)
	}
}

func printStatus(styles cli.Styles, st session.Status) {
	line := fmt.Sprintf("%s %3d%% · %d tokens · %s",
		st.State, st.Progress, st.TokensReceived, st.Elapsed.Round(time.Second))
	fmt.Printf("\r\033[K%s", styles.Status.Render(line))
}

func saveDraft(cliCtx *cli.Context, store *outline.Store, st session.Status) error {
	cache, err := openCache(cliCtx)
	if err != nil {
		return err
	}
	defer cache.Close()
	return cache.Save(&draftcache.Draft{
		DocID:   st.DocID,
		Outline: store.Snapshot(),
		State:   st.State.String(),
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
