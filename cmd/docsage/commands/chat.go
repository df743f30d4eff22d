package commands

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docsage/llm/agent"
	"docsage/llm/providers"
	"docsage/llm/rag"
	"docsage/tui/chat"
)

var chatResume string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question answering session",
	Long: `Open a terminal chat over the indexed documents. The session ends
when you type TERMINATE, reach the turn limit, or press Esc.`,
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

		chatModel, err := providers.NewChatModel(ctx, cfg)
		if err != nil {
			return err
		}
		multimodal, err := providers.NewMultimodalModel(ctx, cfg)
		if err != nil {
			return err
		}

		orch := agent.NewOrchestrator(
			rag.NewRetriever(memory, cfg.Memory.TopK, cfg.Memory.ScoreThreshold),
			rag.NewAssembler(cfg.Chat.MaxContextChars),
			rag.NewSynthesizer(chatModel, multimodal),
			cfg.Chat.MaxTurns,
		)
		defer orch.Close()

		if chatResume != "" {
			data, err := os.ReadFile(chatResume)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			if err := orch.Resume(data); err != nil {
				return fmt.Errorf("resume conversation: %w", err)
			}
		}

		program := tea.NewProgram(
			chat.InitialModel(orch),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)
		_, err = program.Run()
		return err
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "restore a conversation snapshot before starting")
	rootCmd.AddCommand(chatCmd)
}
