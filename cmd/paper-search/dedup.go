// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-search/internal/dedup"
	"github.com/pdiddy/paper-search/internal/platform"
	"github.com/pdiddy/paper-search/pkg/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Deduplicate paper records from a file",
	Long: `Dedup runs the deduplication engine over records loaded from a file
instead of live search results. The input is a JSON or YAML list of paper
records, or a query file previously written by search --save.

By default the merged records are printed. With --find-duplicates the
duplicate groups are reported instead, along with the matching rules (doi,
title, author_year) that connect each group, without merging anything.`,
	RunE: runDedup,
}

func runDedup(cmd *cobra.Command, args []string) error {
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

	if err := dedup.ValidateRecords(papers); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	findOnly, _ := cmd.Flags().GetBool("find-duplicates")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if findOnly {
		groups := dedup.FindDuplicates(papers)
		return formatDuplicateGroups(groups, jsonOutput)
	}

	merged := dedup.Deduplicate(papers)
	out := platform.SearchOutput{
		Papers:      merged,
		DupsRemoved: len(papers) - len(merged),
	}

	if jsonOutput {
		return platform.FormatJSON(out, os.Stdout)
	}
	platform.FormatTable(out, os.Stdout)
	return nil
}

func formatDuplicateGroups(groups []dedup.DuplicateGroup, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicates found.")
		return nil
	}

	for i, g := range groups {
		fmt.Printf("Group %d (matched by %s):\n", i+1, strings.Join(g.RuleNames, ", "))
		for j, p := range g.Papers {
			fmt.Printf("  [%d] %s (%s)\n", g.Indices[j], p.Title, p.Source)
		}
	}
	fmt.Printf("\n%d duplicate group(s)\n", len(groups))
	return nil
}

// loadRecords reads paper records from a JSON or YAML file. YAML input may
// be either a bare list of records or a saved query file.
func loadRecords(path string) ([]types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	if strings.HasSuffix(path, ".json") {
		var papers []types.Paper
		if err := json.Unmarshal(data, &papers); err != nil {
			return nil, fmt.Errorf("parsing JSON input: %w", err)
		}
		return papers, nil
	}

	var papers []types.Paper
	if err := yaml.Unmarshal(data, &papers); err == nil {
		return papers, nil
	}

	var qf platform.QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing YAML input: %w", err)
	}
	return qf.Results, nil
}

func init() {
	dedupCmd.Flags().String("input", "", "input file with paper records (JSON or YAML)")
	dedupCmd.Flags().Bool("find-duplicates", false, "report duplicate groups without merging")
	dedupCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(dedupCmd)
}
