package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all indexed chunks from the vector memory",
	Long: `Drop every entry in the configured collection. Required before
re-indexing with a different embedding model.`,
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

		count, err := memory.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Println("memory is already empty")
			return nil
		}

		if !clearForce {
			fmt.Printf("delete %d chunk(s) from collection %q? [y/N] ", count, cfg.Memory.Collection)
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(line)) != "y" {
				fmt.Println("aborted")
				return nil
			}
		}

		if err := memory.Clear(ctx); err != nil {
			return err
		}
		fmt.Printf("cleared %d chunk(s)\n", count)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(clearCmd)
}
