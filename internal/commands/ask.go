package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(with wrapper) *cobra.Command {
	var profileName string
	var showContext bool

	cmd := &cobra.Command{
		Use:   "ask <text>...",
		Short: "Ask the assistant about an incident",
		Long: `Ask the assistant a free-text question. The text is matched against the
profile's keyword rules and the chosen legal context is sent along with it.
Without GEMINI_API_KEY every answer is the profile's fallback reply.`,
		Args: cobra.MinimumNArgs(1),
		RunE: with(func(cmd *cobra.Command, env *Env, args []string) error {
			profile, ok := env.Assistant.Profile(profileName)
			if !ok {
				return fmt.Errorf("unknown profile %q", profileName)
			}

			answer := env.Assistant.Ask(cmd.Context(), profile, strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if showContext {
				fmt.Fprintf(out, "[%s/%s]\n", answer.Profile, answer.Context)
			}
			fmt.Fprintln(out, answer.Reply)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "assistant profile (officer or citizen; default officer)")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print which context rule was used")
	return cmd
}
