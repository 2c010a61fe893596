package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/it-helpdesk/internal/core/common/validation"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

var hashCost int

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print the bcrypt hash of a password read from stdin",
	Long:  `Read a single line from stdin and print its bcrypt hash, for provisioning accounts by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}

		password := strings.TrimRight(line, "\r\n")
		if appErr := validation.ValidatePassword("password", password); appErr != nil {
			return appErr
		}

		hash, err := coreUser.HashPassword(password, hashCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", coreUser.DefaultBCryptCost, "bcrypt cost")
}
