package main

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/vmunix/iptvstrm/internal/config"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage provider credentials in the system keyring",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the provider password in the system keyring",
	Long: `Prompt for the provider password and store it in the system keyring.
When provider.password is empty in the config, the password is read
from the keyring entry of provider.username.`,
	Args: cobra.NoArgs,
	RunE: runCredentialsSet,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsSetCmd.Flags().StringP("username", "u", "", "Provider username (default: provider.username from the config)")
}

func runCredentialsSet(cmd *cobra.Command, _ []string) error {
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		if path, err := resolveConfigPath(); err == nil {
			if cfg, err := config.LoadWithoutValidation(path); err == nil {
				username = cfg.Provider.Username
			}
		}
	}
	if username == "" {
		if err := survey.AskOne(&survey.Input{Message: "Provider username:"}, &username, survey.WithValidator(survey.Required)); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}

	var password string
	prompt := &survey.Password{Message: fmt.Sprintf("Password for %s:", username)}
	if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if password == "" {
		return errors.New("empty password")
	}

	if err := config.StorePassword(username, password); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s password for %s stored in the keyring\n", styleOK.Render("Saved"), username)
	return nil
}
