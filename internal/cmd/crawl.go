package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropurl/dropurl/internal/audit"
	"github.com/dropurl/dropurl/internal/crawler"
	"github.com/dropurl/dropurl/internal/engine"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <seed URL>",
	Short: "Crawl a site from a seed URL and report page statuses",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().Int("max-depth", 1, "Link depth to follow from the seed (0-2)")
	crawlCmd.Flags().Bool("same-domain-only", true, "Only follow links on the seed's host")
	crawlCmd.Flags().Bool("check-assets", false, "Also run the 404 and asset check on every discovered page")
	crawlCmd.Flags().Bool("tree", false, "Print the crawl as a tree")
	crawlCmd.Flags().StringP("output", "o", outputTable, "Output format: json or table")
	crawlCmd.Flags().Bool("save", false, "Record the result in the check history")
	crawlCmd.Flags().Int("max-nodes", 200, "Stop after N pages")
	crawlCmd.Flags().Float64P("delay", "r", 0.1, "Delay between requests to the same host in seconds")
	crawlCmd.Flags().Bool("ignore-robots", false, "Ignore robots.txt rules")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("delay") {
		delay, _ := cmd.Flags().GetFloat64("delay")
		cfg.Crawl.RequestDelay = secondsToDuration(delay)
	}
	if ignore, _ := cmd.Flags().GetBool("ignore-robots"); ignore {
		cfg.Crawl.RespectRobots = false
	}
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

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

	depth, _ := cmd.Flags().GetInt("max-depth")
	sameDomain, _ := cmd.Flags().GetBool("same-domain-only")
	checkAssets, _ := cmd.Flags().GetBool("check-assets")

	resp, err := a.engine.RunCrawl(cmd.Context(), engine.CrawlRequest{
		SeedURL:        args[0],
		MaxDepth:       &depth,
		SameDomainOnly: sameDomain,
		CheckAssets:    checkAssets,
	})
	if err != nil {
		return err
	}

	var rec *audit.Record
	if save {
		rec, err = a.recorder.Record(cmd.Context(), audit.Submission{
			URLs:     []string{resp.Meta.SeedURL},
			RawInput: args[0],
			Source:   "cli",
			Result:   engine.NewCrawlResult(resp),
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

	if tree, _ := cmd.Flags().GetBool("tree"); tree {
		writeTree(out, crawler.BuildTree(resp.Nodes))
	} else if err := writeRows(out, engine.CrawlRows(resp.Nodes)); err != nil {
		return err
	}
	if resp.Check404 != nil {
		fmt.Fprintln(out)
		if err := writeRows(out, engine.Rows(&engine.CheckResponse{Check404: resp.Check404})); err != nil {
			return err
		}
	}
	if resp.Truncated {
		fmt.Fprintf(out, "\nCrawl stopped early after %d pages\n", len(resp.Nodes))
	}
	writeFlags(out, resp.Summary)
	writeSaved(out, rec)
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
