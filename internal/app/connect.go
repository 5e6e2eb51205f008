package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zlatko/internal/mailbox"
	"zlatko/internal/service"
)

var (
	connectProvider string
	connectCode     string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Authorize a mailbox and store its credential",
	Long:  "Prints the Google consent URL, reads the authorization code and stores the resulting tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Config.Google.ClientID == "" || a.Config.Google.ClientSecret == "" {
			return fmt.Errorf("google.client_id and google.client_secret must be configured")
		}

		userID, err := a.userID()
		if err != nil {
			return err
		}

		code := connectCode
		if code == "" {
			fmt.Printf("Go to the following link in your browser:\n\n%s\n", mailbox.AuthCodeURL(a.OAuth, userID))
			fmt.Print("\nEnter the authorization code: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(line)
		}

		cred, err := a.Credentials.Connect(cmd.Context(), userID, connectProvider, service.ConnectInput{Code: code})
		if err != nil {
			return err
		}

		fmt.Printf("\nConnected %s mailbox %s for user %s\n", cred.Provider, cred.EmailAddress, cred.UserID)
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectProvider, "provider", "gmail", "Mailbox provider: gmail or imap")
	connectCmd.Flags().StringVar(&connectCode, "code", "", "Authorization code (prompted when empty)")
}
