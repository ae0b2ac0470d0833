package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/habitloop/backend/internal/progression"
	"github.com/habitloop/backend/internal/service"
)

func init() {
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Wipe a user's progression back to a fresh state",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	defs, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}
	engine, err := progression.NewEngine(defs)
	if err != nil {
		return err
	}

	state, err := service.New(engine, st).Reset(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Reset %s: level %d, %d points\n", state.UserID, state.Level, state.TotalPoints)
	return nil
}
