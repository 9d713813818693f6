package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/evr"
)

// createCompareCommand creates the compare subcommand
func createCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare EVR1 EVR2",
		Short: "Compare two [epoch:]version[-release] strings",
		Long: `Compare orders two package versions the way rpm does and prints
"EVR1 < EVR2", "EVR1 == EVR2" or "EVR1 > EVR2".`,
		Args: cobra.ExactArgs(2),
		RunE: executeCompare,
	}
}

// executeCompare handles the compare command execution logic
func executeCompare(cmd *cobra.Command, args []string) error {
	a, err := evr.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrInvalidArgument, err)
	}
	b, err := evr.Parse(args[1])
	if err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrInvalidArgument, err)
	}

	op := "=="
	switch evr.Compare(a, b) {
	case -1:
		op = "<"
	case 1:
		op = ">"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[0], op, args[1])
	return err
}
