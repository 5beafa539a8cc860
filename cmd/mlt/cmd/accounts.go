package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	accountsRoot := &cobra.Command{
		Use:   "accounts",
		Short: "Manage MercadoLibre account connections",
	}

	accountsRoot.AddCommand(
		accountsConnectCmd(),
		accountsCallbackCmd(),
		accountsStatusCmd(),
	)

	return accountsRoot
}

func accountsConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <user-id>",
		Short: "Start an OAuth connection for a user",
		Example: `  # Print the authorization URL to open in a browser
  mlt accounts connect user-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.Connect(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Println("Open this URL in a browser to authorize:")
			fmt.Println()
			fmt.Println("  " + resp.AuthorizationURL)
			return nil
		},
	}
}

func accountsCallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "callback <code> <state>",
		Short: "Complete an OAuth connection manually",
		Long: "Completes an OAuth connection with the code and state from the provider\n" +
			"redirect. Useful when the redirect URI points somewhere without a server.",
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.Callback(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Printf("Connected: user %s is MercadoLibre seller %s\n",
				resp.Account.UserID, resp.Account.MeliUserID)
			fmt.Printf("Token expires at %s\n",
				resp.Account.ExpiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func accountsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status <user-id>",
		Short:   "Show a user's connection status",
		Example: `  mlt accounts status user-1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.Status(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Printf("%s: %s\n", resp.UserID, resp.Status)
			return nil
		},
	}
}
