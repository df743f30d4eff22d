package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docsage/llm/providers"
	"docsage/llm/rag"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		memory, err := openMemory(ctx, cfg)
		if err != nil {
			return err
		}
		defer memory.Close()

		chat, err := providers.NewChatModel(ctx, cfg)
		if err != nil {
			return err
		}
		multimodal, err := providers.NewMultimodalModel(ctx, cfg)
		if err != nil {
			return err
		}

		retriever := rag.NewRetriever(memory, cfg.Memory.TopK, cfg.Memory.ScoreThreshold)
		results, err := retriever.Retrieve(ctx, question)
		if err != nil {
			return err
		}

		prompt := rag.NewAssembler(cfg.Chat.MaxContextChars).Assemble(question, results)
		answer, err := rag.NewSynthesizer(chat, multimodal).Generate(ctx, prompt)
		if err != nil {
			return err
		}

		fmt.Println(answer)
		if askShowSources && len(prompt.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, s := range prompt.Sources {
				fmt.Printf("  - %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "list the chunks the answer was grounded in")
	rootCmd.AddCommand(askCmd)
}
