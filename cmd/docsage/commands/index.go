package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsage/llm/parser"
	"docsage/llm/rag"
	"docsage/llm/vector"
)

var indexConcurrency int

var indexCmd = &cobra.Command{
	Use:   "index [sources...]",
	Short: "Extract, chunk and embed documents into the vector memory",
	Long: `Index one or more sources into the vector memory. Sources can be
file paths, glob patterns (** is supported) or http(s) URLs.

Supported formats: pdf, md, html, txt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		memory, err := openMemory(ctx, cfg)
		if err != nil {
			return err
		}
		defer memory.Close()

		sources, bad := rag.ExpandSources(args)
		for pattern, perr := range bad {
			fmt.Printf("skipping %s: %v\n", pattern, perr)
		}
		if len(sources) == 0 {
			return fmt.Errorf("no sources to index")
		}

		indexer := rag.NewIndexer(
			parser.DefaultRegistry(),
			memory,
			vector.SplitConfig{
				ChunkSize:    cfg.Chunking.ChunkSize,
				ChunkOverlap: cfg.Chunking.ChunkOverlap,
				MinChunkSize: cfg.Chunking.MinChunkSize,
			},
			cfg.Chat.ImageDir,
			indexConcurrency,
		)

		report := indexer.IndexSources(ctx, sources)
		for _, src := range report.Indexed {
			fmt.Printf("indexed %s\n", src)
		}
		for src, serr := range report.Failures {
			fmt.Printf("failed  %s: %v\n", src, serr)
		}
		fmt.Printf("\n%d chunks from %d source(s), %d failure(s)\n",
			report.TotalChunks, len(report.Indexed), len(report.Failures))
		return nil
	},
}

func init() {
	indexCmd.Flags().IntVar(&indexConcurrency, "concurrency", 4, "sources processed in parallel")
	rootCmd.AddCommand(indexCmd)
}
