// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-search/internal/library"
	"github.com/pdiddy/paper-search/internal/platform"
	"github.com/pdiddy/paper-search/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local library of saved papers",
	Long: `Library manages a local SQLite database of merged paper records the
researcher decided to keep. Use subcommands to save records from a file,
query with full-text search, remove entries, or export the whole library.`,
}

// --- save subcommand ---

var librarySaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Save paper records from a file into the library",
	Long: `Save loads records from a JSON or YAML file (typically written by
search --save), deduplicates them, and upserts the merged records into
the library database. Saving the same paper again replaces the stored copy.`,
	RunE: runLibrarySave,
}

func runLibrarySave(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	if inputPath == "" && len(args) > 0 {
		inputPath = args[0]
	}
	if inputPath == "" {
		return fmt.Errorf("input file required: pass --input or a positional path")
	}

	papers, err := loadRecords(inputPath)
	if err != nil {
		return err
	}

	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Save(context.Background(), papers)
	if err != nil {
		return err
	}

	fmt.Printf("added: %d, updated: %d, skipped: %d\n",
		summary.Added, summary.Updated, summary.Skipped)
	return nil
}

// --- query subcommand ---

var libraryQueryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Search the library with full-text search",
	Long: `Query searches saved papers by title, abstract, authors, and keywords
using FTS5 full-text search. Without terms it lists the most recently
saved papers.`,
	RunE: runLibraryQuery,
}

func runLibraryQuery(cmd *cobra.Command, args []string) error {
	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := library.QueryOptions{}
	if len(args) > 0 {
		opts.Query = args[0]
		for _, a := range args[1:] {
			opts.Query += " " + a
		}
	}
	opts.Source, _ = cmd.Flags().GetString("source")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")

	papers, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	out := platform.SearchOutput{Papers: papers}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return platform.FormatJSON(out, os.Stdout)
	}
	platform.FormatTable(out, os.Stdout)
	return nil
}

// --- remove subcommand ---

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove <paper-id>",
	Short: "Remove a paper from the library",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryRemove,
}

func runLibraryRemove(cmd *cobra.Command, args []string) error {
	store, err := library.NewStore(libraryConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Remove(context.Background(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("paper %s not found in library", args[0])
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to YAML or JSON",
	Long: `Export writes the full library (or a filtered subset) to library.yaml
or library.json in the library directory. Supports the same filter flags
as query for partial exports.`,
	RunE: runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := libraryConfig(cmd)
	store, err := library.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := library.QueryOptions{}
	opts.Query, _ = cmd.Flags().GetString("query")
	opts.Source, _ = cmd.Flags().GetString("source")

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/library.yaml\n", cfg.Dir)
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/library.json\n", cfg.Dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func libraryConfig(cmd *cobra.Command) types.LibraryConfig {
	dir, _ := cmd.Flags().GetString("library-dir")
	if dir == "" {
		dir = viper.GetString("library.dir")
	}
	if dir == "" {
		dir = "library"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults <= 0 {
		maxResults = viper.GetInt("library.max_results")
	}

	return types.LibraryConfig{Dir: dir, MaxResults: maxResults}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	libraryCmd.PersistentFlags().String("library-dir", "", "library directory (default: ./library or config library.dir)")
	libraryCmd.PersistentFlags().Int("max-results", 0, "maximum number of query results (0 = use default)")

	// Save flags.
	librarySaveCmd.Flags().String("input", "", "input file with paper records (JSON or YAML)")

	// Query flags.
	libraryQueryCmd.Flags().String("source", "", "filter by source platform")
	libraryQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	libraryQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	libraryExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	libraryExportCmd.Flags().String("source", "", "source filter for partial export")

	// Wire subcommands.
	libraryCmd.AddCommand(librarySaveCmd)
	libraryCmd.AddCommand(libraryQueryCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryExportCmd)

	rootCmd.AddCommand(libraryCmd)
}
