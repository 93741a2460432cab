package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"vidlink/internal/extract"
	"vidlink/internal/media"
)

var (
	flagNoBrowser  bool
	flagCandidates bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Resolve one page and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  extractRun,
}

func init() {
	extractCmd.Flags().BoolVar(&flagNoBrowser, "no-browser", false, "Skip the headless browser stage")
	extractCmd.Flags().BoolVar(&flagCandidates, "candidates", false, "Also print every manifest candidate")
}

func extractRun(cmd *cobra.Command, args []string) error {
	source := args[0]
	if err := extract.ValidateSource(source); err != nil {
		return err
	}

	p := newPipeline(cfg, nil)
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	e := p.extractor()
	result, err := e.Extract(ctx, source)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", source, err)
	}

	out := any(result)
	if flagCandidates {
		out = struct {
			media.Result
			Candidates []string `json:"candidates"`
		}{result, e.Candidates(source)}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if result.Empty() {
		fmt.Fprintln(os.Stderr, "No video links found.")
	}
	return nil
}
