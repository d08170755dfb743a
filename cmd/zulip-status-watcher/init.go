package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/logivations/zulip-status-watcher/internal/config"
)

var (
	initServer string
	initEmail  string
	initUsers  []string
	initGroup  string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config",
	Long: `Write a starter configuration to the --config path.

The Zulip API key is read from ZULIP_API_KEY, or prompted for (without echo)
when stdin is a terminal. Everything else can be edited in the file
afterwards.

An existing config is never overwritten unless --force is given.

Examples:
  zulip-status-watcher init --server https://chat.example.com --email status-bot@example.com \
      --user ann@example.com --user bob@example.com
  zulip-status-watcher init --server https://chat.example.com --email status-bot@example.com \
      --group staff@example.com`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initServer, "server", "", "Zulip server URL")
	initCmd.Flags().StringVar(&initEmail, "email", "", "Zulip bot email")
	initCmd.Flags().StringArrayVar(&initUsers, "user", nil, "User to watch, optionally email=ics-url (repeatable)")
	initCmd.Flags().StringVar(&initGroup, "group", "", "Google group whose members are watched")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ExpandPath(configPath)
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s (use --force to overwrite).\n", path)
		return nil
	}

	apiKey := os.Getenv(config.EnvZulipAPIKey)
	if apiKey == "" {
		key, err := promptAPIKey(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		apiKey = key
	}

	cfg := starterConfig(initServer, initEmail, apiKey, initUsers, initGroup)
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nStill to fill in:\n%v\n", err)
	}
	return nil
}

// promptAPIKey reads the key from the terminal with echo off. Without a
// terminal the key is left empty for the user to add to the file.
func promptAPIKey(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(prompt, "Zulip API key: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// starterConfig builds the config written by init. Users given as
// "email=ics-url" are read from that ICS feed.
func starterConfig(server, email, apiKey string, users []string, group string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Zulip.ServerURL = server
	cfg.Zulip.Email = email
	cfg.Zulip.APIKey = apiKey
	cfg.Group = group
	cfg.Google.CredentialsFile = "~/.config/zulip-status-watcher/service-account.json"
	for _, u := range users {
		addr, url, _ := strings.Cut(u, "=")
		cfg.Users = append(cfg.Users, config.UserConfig{
			Email:  strings.TrimSpace(addr),
			ICSURL: strings.TrimSpace(url),
		})
	}
	cfg.Normalize()
	return cfg
}
