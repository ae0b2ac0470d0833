package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/habitloop/backend/internal/catalog"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [file]",
	Short: "Validate an achievement catalogue file",
	Long: `Validate a YAML achievement catalogue. With no argument the built-in
default catalogue is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	defs := catalog.Default()
	if len(args) == 1 {
		var err error
		defs, err = catalog.Load(args[0])
		if err != nil {
			return err
		}
	}

	for _, def := range defs {
		fmt.Printf("%-20s %-10s %4dpt  %s\n", def.ID, def.Rarity, def.PointReward, def.Title)
	}
	fmt.Printf("%d achievements, all valid\n", len(defs))
	return nil
}
