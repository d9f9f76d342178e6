// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-search/internal/platform"
	"github.com/pdiddy/paper-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search academic platforms for papers",
	Long: `Search queries all enabled academic platforms concurrently for papers
matching a research question or structured query parameters. Records that
describe the same paper are merged across platforms: the DOI, normalized
title, and first-author/year keys connect duplicates, and each group
collapses to one record combining the best fields from its members.

Output formats: human-readable table (default), JSON (--json), or CSL-YAML
for Pandoc and reference managers (--csl). Use --save to write the query
and results to a YAML file for later reuse.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if query.IsEmpty() {
		return fmt.Errorf("query is empty: provide search terms, --author, or --keywords")
	}

	cfg := searchConfig(cmd)

	platformsFlag, _ := cmd.Flags().GetString("platforms")
	if platformsFlag != "" {
		cfg.Platforms = parsePlatforms(platformsFlag)
	}

	backends := platform.All(cfg)
	if len(backends) == 0 {
		return fmt.Errorf("all platforms are disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	out, err := platform.Search(ctx, query, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		var names []string
		for _, b := range backends {
			names = append(names, b.Name())
		}
		if err := platform.WriteQueryFile(savePath, query, cfg, names, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query and results to %s\n", savePath)
	}

	return formatSearchOutput(cmd, out)
}

func formatSearchOutput(cmd *cobra.Command, out platform.SearchOutput) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cslOutput, _ := cmd.Flags().GetBool("csl")

	switch {
	case jsonOutput && cslOutput:
		return fmt.Errorf("--json and --csl are mutually exclusive")
	case jsonOutput:
		return platform.FormatJSON(out, os.Stdout)
	case cslOutput:
		return platform.FormatCSL(out, os.Stdout)
	default:
		platform.FormatTable(out, os.Stdout)
		return nil
	}
}

// queryFromFlags builds a Query from flags, with positional args as
// free text when --query is absent.
func queryFromFlags(cmd *cobra.Command, args []string) (platform.Query, error) {
	freeText, _ := cmd.Flags().GetString("query")
	if freeText == "" && len(args) > 0 {
		freeText = strings.Join(args, " ")
	}

	author, _ := cmd.Flags().GetString("author")
	keywordsFlag, _ := cmd.Flags().GetString("keywords")

	q := platform.Query{
		FreeText: freeText,
		Author:   author,
	}

	for _, kw := range strings.Split(keywordsFlag, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			q.Keywords = append(q.Keywords, kw)
		}
	}

	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return q, fmt.Errorf("invalid --from date %q: use YYYY-MM-DD", from)
		}
		q.DateFrom = t
	}
	to, _ := cmd.Flags().GetString("to")
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return q, fmt.Errorf("invalid --to date %q: use YYYY-MM-DD", to)
		}
		q.DateTo = t
	}

	return q, nil
}

// searchConfig assembles SearchConfig from config file values, flags, and
// loaded secrets. Flags override config; explicit config overrides secrets.
func searchConfig(cmd *cobra.Command) types.SearchConfig {
	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "paper-search/" + version,
		},
		MaxResults:        viper.GetInt("search.max_results"),
		RequestsPerSecond: viper.GetFloat64("search.requests_per_second"),
	}

	if t := viper.GetDuration("search.timeout"); t > 0 {
		cfg.Timeout = t
	}
	if ua := viper.GetString("search.user_agent"); ua != "" {
		cfg.UserAgent = ua
	}
	if platforms := viper.GetStringMap("search.platforms"); len(platforms) > 0 {
		cfg.Platforms = map[string]bool{}
		for name := range platforms {
			cfg.Platforms[name] = viper.GetBool("search.platforms." + name)
		}
	}

	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}

	cfg.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key",
		viper.GetString("search.semantic_scholar_api_key"))
	cfg.OpenAlexEmail = secretDefault("openalex-email",
		viper.GetString("search.openalex_email"))

	return cfg
}

// parsePlatforms converts a comma-separated allow list into the platform
// switch map: listed backends on, everything else off.
func parsePlatforms(list string) map[string]bool {
	m := map[string]bool{
		"arxiv":            false,
		"pubmed":           false,
		"semantic_scholar": false,
		"openalex":         false,
		"crossref":         false,
		"europe_pmc":       false,
		"dblp":             false,
		"scholar":          false,
	}
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			m[name] = true
		}
	}
	return m
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question")
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().String("keywords", "", "filter by keywords (comma-separated)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Int("max-results", 20, "maximum number of results per platform")
	searchCmd.Flags().String("platforms", "", "platforms to query (comma-separated; default: all)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML")
	searchCmd.Flags().String("save", "", "save query and results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}
