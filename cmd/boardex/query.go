package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/boardex"
	"github.com/kailas-cloud/boardex/internal/domain/props"
)

var (
	queryVault string
	queryBoard string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a board query against a vault and print the grouped result",
	Args:  cobra.NoArgs,
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryVault, "vault", ".", "vault root directory")
	queryCmd.Flags().StringVar(&queryBoard, "board", "", "board config file (\"-\" reads stdin)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	_ = queryCmd.MarkFlagRequired("board")
}

func runQuery(cmd *cobra.Command, _ []string) error {
	config, err := readBoardConfig(queryBoard)
	if err != nil {
		return err
	}

	client, err := boardex.Open(boardex.WithVault(queryVault))
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.QuerySpec(cmd.Context(), config)
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	renderResult(cmd.OutOrStdout(), res)
	return nil
}

// readBoardConfig loads the board block from a file or stdin.
func readBoardConfig(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read board config from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read board config: %w", err)
	}
	return string(data), nil
}

func renderResult(w io.Writer, res boardex.QueryResult) {
	if res.Title != "" {
		fmt.Fprintf(w, "%s\n", res.Title)
	}
	fmt.Fprintf(w, "%d documents\n", len(res.Documents))

	if res.X != nil {
		renderAxis(w, res.X, res.Documents, res.Display)
	}
	if res.Y != nil {
		renderAxis(w, res.Y, res.Documents, res.Display)
	}

	if len(res.Errors) > 0 {
		fmt.Fprintln(w, "\nProblems:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
	}
}

// renderAxis lists each bucket with the documents grouped under it. Bucket
// membership follows the result's reverse map, so transformed axes render
// without re-running the transform.
func renderAxis(w io.Writer, ax *boardex.Axis, docs []boardex.Document, display []string) {
	name := ax.Property
	if ax.Label != "" {
		name = ax.Label
	}

	labelFor := make(map[string]string)
	for label, raws := range ax.Reverse {
		for _, r := range raws {
			labelFor[props.String(r)] = label
		}
	}

	byBucket := make(map[string][]string, len(ax.Buckets))
	var unassigned []string
	for _, d := range docs {
		raw, ok := d.Property(ax.Property)
		if !ok {
			unassigned = append(unassigned, d.Name)
			continue
		}
		placed := map[string]bool{}
		for _, v := range elementsOf(raw) {
			label, known := labelFor[props.String(v)]
			if !known || placed[label] {
				continue
			}
			placed[label] = true
			byBucket[label] = append(byBucket[label], cardLine(d, display))
		}
		if len(placed) == 0 {
			unassigned = append(unassigned, d.Name)
		}
	}

	fmt.Fprintf(w, "\n%s\n", name)
	for _, b := range ax.Buckets {
		fmt.Fprintf(w, "  %s (%d)\n", b, len(byBucket[b]))
		for _, n := range byBucket[b] {
			fmt.Fprintf(w, "    - %s\n", n)
		}
	}
	if len(unassigned) > 0 {
		fmt.Fprintf(w, "  unassigned: %s\n", strings.Join(unassigned, ", "))
	}
}

// cardLine renders one card: the document name plus the board's display
// properties, when it declares any.
func cardLine(d boardex.Document, display []string) string {
	if len(display) == 0 {
		return d.Name
	}
	parts := make([]string, 0, len(display))
	for _, path := range display {
		if v, ok := d.Property(path); ok {
			parts = append(parts, path+"="+props.String(v))
		}
	}
	if len(parts) == 0 {
		return d.Name
	}
	return d.Name + " (" + strings.Join(parts, ", ") + ")"
}

// elementsOf expands a sequence property into its members; scalars render as
// themselves.
func elementsOf(v any) []any {
	if seq, ok := v.([]any); ok {
		return seq
	}
	return []any{v}
}
