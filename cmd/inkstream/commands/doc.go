package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/inkstream/inkstream/go/pkg/cite"
	"github.com/inkstream/inkstream/go/pkg/docapi"
	"github.com/inkstream/inkstream/go/pkg/outline"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Fetch, render and save persisted documents",
}

var docGetJQ string

var docGetCmd = &cobra.Command{
	Use:   "get <doc-id>",
	Short: "Fetch a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		api, _, err := newAPIClient()
		if err != nil {
			return err
		}
		doc, err := api.GetDocument(cmd.Context(), id)
		if err != nil {
			return err
		}

		if docGetJQ == "" {
			return output(doc)
		}

		query, err := gojq.Parse(docGetJQ)
		if err != nil {
			return fmt.Errorf("invalid jq expression %q: %w", docGetJQ, err)
		}
		// jq runs over the document with its content expanded into
		// sections where possible.
		input, err := docAsValue(doc.ID, doc.Title, doc.Template, doc.Content)
		if err != nil {
			return err
		}
		iter := query.Run(input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				return fmt.Errorf("jq: %w", err)
			}
			if err := output(v); err != nil {
				return err
			}
		}
		return nil
	},
}

var (
	docPutFile    string
	docPutContent string
)

var docPutCmd = &cobra.Command{
	Use:   "put <doc-id>",
	Short: "Persist edited document content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		content := docPutContent
		if docPutFile != "" {
			data, err := os.ReadFile(docPutFile)
			if err != nil {
				return err
			}
			content = string(data)
		}
		if content == "" {
			return fmt.Errorf("provide --file or --content")
		}
		api, _, err := newAPIClient()
		if err != nil {
			return err
		}
		return api.PutDocument(cmd.Context(), id, content)
	},
}

var docRenderResolve bool

var docRenderCmd = &cobra.Command{
	Use:   "render <doc-id>",
	Short: "Render a document with citation markers placed into the text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		api, _, err := newAPIClient()
		if err != nil {
			return err
		}
		doc, err := api.GetDocument(cmd.Context(), id)
		if err != nil {
			return err
		}
		o, err := parseContent(doc.Content)
		if err != nil {
			return err
		}
		if o.Title == "" {
			o.Title = doc.Title
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", o.Title)
		for _, sec := range o.Sections {
			fmt.Fprintf(&b, "## %s\n\n", sec.Heading)
			body := cite.Place(sec.Content, sec.Citations.IDs())
			if body != "" {
				b.WriteString(body)
				b.WriteString("\n\n")
			}
		}
		if docRenderResolve {
			if err := appendReferences(cmd, api, &b, o); err != nil {
				return err
			}
		}
		fmt.Print(b.String())
		return nil
	},
}

func init() {
	docGetCmd.Flags().StringVar(&docGetJQ, "jq", "", "jq expression applied to the fetched document")
	docPutCmd.Flags().StringVarP(&docPutFile, "file", "f", "", "read content from file")
	docPutCmd.Flags().StringVar(&docPutContent, "content", "", "literal content")
	docRenderCmd.Flags().BoolVar(&docRenderResolve, "resolve", false, "resolve citation ids to snippet text in a references list")

	docCmd.AddCommand(docGetCmd, docPutCmd, docRenderCmd)
	rootCmd.AddCommand(docCmd)
}

func parseDocID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}

// parseContent accepts either outline JSON or the markdown document form.
func parseContent(content string) (*outline.Outline, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		return outline.Parse([]byte(content))
	}
	return outline.ParseMarkdown(content)
}

// appendReferences resolves every cited snippet id and appends a numbered
// references list.
func appendReferences(cmd *cobra.Command, api *docapi.Client, b *strings.Builder, o *outline.Outline) error {
	seen := make(map[int]struct{})
	var ids []int
	for _, sec := range o.Sections {
		for _, id := range sec.Citations.IDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)
	sns, err := api.SnippetsByIDs(cmd.Context(), ids)
	if err != nil {
		return err
	}
	b.WriteString("## References\n\n")
	for _, sn := range sns {
		line := sn.Text
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		fmt.Fprintf(b, "[%d] %s", sn.ID, line)
		if sn.Path != "" {
			fmt.Fprintf(b, " (%s)", sn.Path)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return nil
}

// docAsValue shapes a document for jq: plain JSON types only.
func docAsValue(id int64, title, template, content string) (any, error) {
	out := map[string]any{
		"id":       id,
		"title":    title,
		"template": template,
		"content":  content,
	}
	if o, err := parseContent(content); err == nil {
		data, err := json.Marshal(o)
		if err != nil {
			return nil, err
		}
		var sections map[string]any
		if err := json.Unmarshal(data, &sections); err != nil {
			return nil, err
		}
		out["sections"] = sections["sections"]
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
