package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/gamewatch/internal/notify"
	"github.com/nhle/gamewatch/internal/theme"
)

// maxCandidates caps how many ambiguous lookup results are listed.
const maxCandidates = 5

func addChatFlag(cmd *cobra.Command, chat *int64) {
	cmd.Flags().Int64Var(chat, "chat", 0, "subscriber chat id")
	_ = cmd.MarkFlagRequired("chat")
}

func newFollowCmd(a *app) *cobra.Command {
	var chat int64

	cmd := &cobra.Command{
		Use:   "follow <player name>",
		Short: "Follow a player",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			candidates, err := a.stats().Lookup(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("looking up %q: %w", query, err)
			}
			if len(candidates) == 0 {
				fmt.Fprintf(out, "Couldn't find a player named %q.\n", query)
				return nil
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			player := candidates[0]
			outcome := notify.NewFollowBook(st, a.logger).Follow(cmd.Context(), chat, player)
			fmt.Fprintf(out, "%s %s\n", theme.Outcome(string(outcome)), player.DisplayName)

			if len(candidates) > 1 {
				var names []string
				for _, c := range candidates[:min(len(candidates), maxCandidates)] {
					names = append(names, c.DisplayName)
				}
				fmt.Fprintln(out, theme.HintStyle.Render(
					fmt.Sprintf("%d players matched %q: %s. Be more specific to pick another.",
						len(candidates), query, strings.Join(names, ", "))))
			}
			if outcome == notify.FollowFailed {
				return fmt.Errorf("could not follow %s", player.DisplayName)
			}
			return nil
		},
	}
	addChatFlag(cmd, &chat)
	return cmd
}

func newUnfollowCmd(a *app) *cobra.Command {
	var chat int64

	cmd := &cobra.Command{
		Use:   "unfollow <player name>",
		Short: "Stop following a player",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			outcome := notify.NewFollowBook(st, a.logger).Unfollow(cmd.Context(), chat, name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Outcome(string(outcome)), name)
			if outcome == notify.UnfollowFailed {
				return fmt.Errorf("could not unfollow %s", name)
			}
			return nil
		},
	}
	addChatFlag(cmd, &chat)
	return cmd
}

func newFollowingCmd(a *app) *cobra.Command {
	var chat int64

	cmd := &cobra.Command{
		Use:   "following",
		Short: "List followed players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			follows := notify.NewFollowBook(st, a.logger).List(cmd.Context(), chat)
			out := cmd.OutOrStdout()
			if len(follows) == 0 {
				fmt.Fprintln(out, theme.HintStyle.Render("Not following anyone yet. Try `gamewatch follow --chat ID <name>`."))
				return nil
			}

			rows := make([][]string, 0, len(follows))
			for _, f := range follows {
				rows = append(rows, []string{f.DisplayName, fmt.Sprint(f.EntityID), f.CreatedAt.Format("2006-01-02")})
			}
			fmt.Fprintln(out, theme.Table([]string{"Player", "ID", "Since"}, rows))
			return nil
		},
	}
	addChatFlag(cmd, &chat)
	return cmd
}
