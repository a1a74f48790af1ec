package main

import (
	"fmt"
	"strings"

	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the gesture rule table",
	Long: `Prints the rules in priority order with the configured cooldowns. The first
matching rule whose cooldown is idle decides the frame's action.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		plain, _ := cmd.Flags().GetBool("plain")

		cfg, err := loadExistingConfig(configPath)
		if err != nil {
			return err
		}

		md := rulesMarkdown(gesture.DefaultRules(cfg.Gesture().Router))
		if plain {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render rules: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().Bool("plain", false, "Print raw markdown")
}

// rulesMarkdown renders the table as a markdown document. Patterns read
// thumb, index, middle, ring, pinky; 1 is raised.
func rulesMarkdown(rules []gesture.Rule) string {
	var b strings.Builder
	b.WriteString("# Gesture rules\n\n")
	b.WriteString("Fingers are thumb, index, middle, ring, pinky; `1` is raised.\n\n")
	b.WriteString("| # | Rule | Fingers | Action | Cooldown | Stops evaluation |\n")
	b.WriteString("|---|------|---------|--------|----------|------------------|\n")

	for i, r := range rules {
		cooldown := "none"
		if r.Class != gesture.ClassNone {
			cooldown = fmt.Sprintf("%s (%s)", r.Cooldown, r.Class)
		}
		stops := "no"
		if r.Terminal {
			stops = "yes"
		}
		fmt.Fprintf(&b, "| %d | %s | `%s` | %s | %s | %s |\n",
			i+1, r.Name, r.Pattern, r.Kind, cooldown, stops)
	}
	return b.String()
}
