package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/gamewatch/internal/credential"
	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/theme"
	"github.com/nhle/gamewatch/internal/transport/telegram"
)

const verifyTimeout = 15 * time.Second

func validateToken(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("token is required")
	}
	if !strings.Contains(s, ":") {
		return errors.New("a bot token looks like 123456:ABC-DEF")
	}
	return nil
}

func newLoginCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the Telegram bot token in the system keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().
							Title("Telegram bot token").
							Description("From @BotFather, e.g. 123456:ABC-DEF").
							EchoMode(huh.EchoModePassword).
							Value(&token).
							Validate(validateToken),
					),
				)
				if err := form.Run(); err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
			}
			token = strings.TrimSpace(token)
			if err := validateToken(token); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
			defer cancel()
			client := telegram.NewClient(a.cfg.Telegram.BaseURL, token, a.cfg.Telegram.Timeout, a.cfg.Telegram.MaxRetries)
			username, err := client.GetMe(ctx)
			if err != nil {
				return err
			}

			ks, err := credential.Open("")
			if err != nil {
				return err
			}
			if err := ks.Set(credential.BotTokenKey, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s token for @%s stored\n", theme.Outcome("ok"), username)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bot token (prompted when omitted)")
	return cmd
}

func newLogoutCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the bot token from the system keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := credential.Open("")
			if err != nil {
				return err
			}
			if err := ks.Delete(credential.BotTokenKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token removed")
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", a.configPath)
			}
			if err := model.SaveConfig(a.configPath, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
