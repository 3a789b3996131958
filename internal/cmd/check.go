package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dropurl/dropurl/internal/audit"
	"github.com/dropurl/dropurl/internal/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check [URLs...]",
	Short: "Run 404, duplicate and SEO checks over a list of URLs",
	Long: `Run the selected checks over a list of URLs. URLs are taken from the
arguments, or from standard input when the only argument is "-". Inputs
without a scheme are treated as https.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("404", false, "Check pages, iframes and assets for 404s")
	checkCmd.Flags().Bool("duplicate", false, "Detect duplicated embedded content")
	checkCmd.Flags().Bool("seo", false, "Inspect SEO metadata")
	checkCmd.Flags().Bool("all", false, "Run every check (default when none is selected)")
	checkCmd.Flags().StringP("output", "o", outputTable, "Output format: json or table")
	checkCmd.Flags().Bool("save", false, "Record the result in the check history")
	checkCmd.Flags().Bool("progress", false, "Show a progress bar on stderr")
	checkCmd.Flags().Int("chunk-size", 10, "URLs per chunk")
	checkCmd.Flags().Duration("chunk-timeout", 0, "Deadline for one chunk (0 uses the configured value)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetDuration("chunk-timeout"); d > 0 {
		cfg.Batch.ChunkTimeout = d
	}
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	raw, urls, err := readURLs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	save, _ := cmd.Flags().GetBool("save")
	a, err := newApp(cmd.Context(), cfg, save)
	if err != nil {
		return err
	}
	defer a.Close()
	if save {
		if err := a.requireStore(); err != nil {
			return err
		}
	}

	eng := a.engine
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		eng = eng.WithProgress(newProgressReporter(cmd.ErrOrStderr()))
	}

	resp, err := eng.RunChecks(cmd.Context(), engine.CheckRequest{URLs: urls, Checks: selectedChecks(cmd)})
	if err != nil {
		return err
	}

	var rec *audit.Record
	if save {
		rec, err = a.recorder.Record(cmd.Context(), audit.Submission{
			URLs:     engine.NormalizeURLs(urls),
			RawInput: raw,
			Source:   "cli",
			Result:   engine.NewBatchResult(resp),
		})
		if err != nil {
			return err
		}
		defer func() { <-rec.Notified() }()
	}

	out := cmd.OutOrStdout()
	if output == outputJSON {
		return writeJSON(out, resp)
	}
	if err := writeRows(out, engine.Rows(resp)); err != nil {
		return err
	}
	writePartial(out, resp)
	writeFlags(out, resp.Summary)
	writeSaved(out, rec)
	return nil
}

func selectedChecks(cmd *cobra.Command) engine.Checks {
	c404, _ := cmd.Flags().GetBool("404")
	dup, _ := cmd.Flags().GetBool("duplicate")
	seo, _ := cmd.Flags().GetBool("seo")
	all, _ := cmd.Flags().GetBool("all")
	if !c404 && !dup && !seo {
		all = true
	}
	return engine.Checks{All: all, Check404: c404, Duplicate: dup, SEO: seo}
}

// readURLs returns the raw input and the URLs split out of it
func readURLs(args []string, stdin io.Reader) (string, []string, error) {
	if len(args) == 1 && args[0] == "-" {
		var lines []string
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return "", nil, fmt.Errorf("failed to read URLs from stdin: %w", err)
		}
		raw := strings.Join(lines, "\n")
		return raw, engine.SplitInput(raw), nil
	}
	raw := strings.Join(args, "\n")
	return raw, engine.SplitInput(raw), nil
}

func writePartial(w io.Writer, resp *engine.CheckResponse) {
	note := func(family string, partial bool, message string) {
		if partial {
			fmt.Fprintf(w, "\n%s: partial result (%s)\n", family, message)
		}
	}
	if r := resp.Check404; r != nil {
		note("404", r.Partial, r.Message)
	}
	if r := resp.Duplicate; r != nil {
		note("duplicate", r.Partial, r.Message)
	}
	if r := resp.SEO; r != nil {
		note("seo", r.Partial, r.Message)
	}
}

func writeSaved(w io.Writer, rec *audit.Record) {
	if rec == nil {
		return
	}
	fmt.Fprintf(w, "Saved as check #%d\n", rec.Check.ID)
	if rec.AI != nil && rec.AI.AISummary != "" {
		fmt.Fprintf(w, "\n%s\n", rec.AI.AISummary)
	}
}

// newProgressReporter draws one bar per check family
func newProgressReporter(w io.Writer) engine.ProgressFunc {
	var mu sync.Mutex
	bars := make(map[string]*progressbar.ProgressBar)
	return func(family string, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		bar, ok := bars[family]
		if !ok {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription(family),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
			)
			bars[family] = bar
		}
		_ = bar.Set(done)
	}
}
