package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/boardex"
	"github.com/kailas-cloud/boardex/internal/domain/props"
	"github.com/kailas-cloud/boardex/internal/prompt"
	resolveuc "github.com/kailas-cloud/boardex/internal/usecase/resolve"
)

var (
	resolveVault   string
	resolveBoard   string
	resolveDoc     string
	resolveXTarget string
	resolveYTarget string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a card drop: validate the target, prompt for raw values, write",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveVault, "vault", ".", "vault root directory")
	resolveCmd.Flags().StringVar(&resolveBoard, "board", "", "board config file (\"-\" reads stdin)")
	resolveCmd.Flags().StringVar(&resolveDoc, "document", "", "vault-relative document path")
	resolveCmd.Flags().StringVar(&resolveXTarget, "x", "", "target bucket on the x axis")
	resolveCmd.Flags().StringVar(&resolveYTarget, "y", "", "target bucket on the y axis")
	_ = resolveCmd.MarkFlagRequired("board")
	_ = resolveCmd.MarkFlagRequired("document")
}

func runResolve(cmd *cobra.Command, _ []string) error {
	config, err := readBoardConfig(resolveBoard)
	if err != nil {
		return err
	}

	drop := boardex.Drop{Document: resolveDoc}
	if cmd.Flags().Changed("x") {
		drop.XTarget = boardex.Target(resolveXTarget)
	}
	if cmd.Flags().Changed("y") {
		drop.YTarget = boardex.Target(resolveYTarget)
	}

	client, err := boardex.Open(boardex.WithVault(resolveVault))
	if err != nil {
		return err
	}
	defer client.Close()

	term := prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
	out, err := client.ResolveDropSpec(cmd.Context(), config, drop, terminalPrompt(term))
	if err != nil {
		if errors.Is(err, boardex.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; nothing written.")
			return nil
		}
		return err
	}

	switch out.Status {
	case "committed":
		if len(out.Written) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to write.")
			break
		}
		for path, value := range out.Written {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %s\n", path, props.String(value))
		}
	case "cancelled":
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; nothing written.")
	}
	return nil
}

// terminalPrompt adapts the interactive prompter to the client's callback.
func terminalPrompt(term *prompt.Terminal) boardex.PromptFunc {
	return func(ctx context.Context, p boardex.Prompt) (any, error) {
		return term.Prompt(ctx, resolveuc.PromptSpec{
			Axis:       p.Axis,
			Name:       p.Name,
			Target:     p.Target,
			Candidates: p.Candidates,
			Numeric:    p.Numeric,
			Min:        p.Min,
			Max:        p.Max,
		})
	}
}
