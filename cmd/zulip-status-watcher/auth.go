package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logivations/zulip-status-watcher/internal/config"
	"github.com/logivations/zulip-status-watcher/internal/gcal"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Google Calendar access",
	Long: `Run the Google OAuth consent flow and save the token to google.token_file.

Only needed with google.auth: oauth. The consent page redirects to
http://` + gcal.CallbackAddr + `/callback, so run this on a machine with a browser.

Examples:
  zulip-status-watcher auth`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Google.Auth != config.AuthOAuth {
		return fmt.Errorf("google.auth is %q; auth is only needed for %q", cfg.Google.Auth, config.AuthOAuth)
	}
	if cfg.Google.CredentialsFile == "" || cfg.Google.TokenFile == "" {
		return errors.New("google.credentials_file and google.token_file must be set")
	}

	conf, err := gcal.LoadOAuthConfig(cfg.Google.CredentialsFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	tok, err := gcal.TokenFromWeb(ctx, conf, func(url string) {
		fmt.Fprintf(out, "Open this URL in your browser to authorize access:\n\n%s\n\nWaiting for authorization...\n", url)
	})
	if err != nil {
		return err
	}

	if err := gcal.SaveToken(cfg.Google.TokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", cfg.Google.TokenFile)
	return nil
}
