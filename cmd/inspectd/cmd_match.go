package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"inspectd/cmd/inspectd/ui"
	"inspectd/internal/comments"
)

var matchSection string

// matchCmd dry-runs the comment matcher
var matchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Match observation text against the comment library",
	Long: `Runs the comment matcher without recording anything.

Useful for tuning the boilerplate library: shows which comment a finding
text would pick up, its confidence, and the matched section path.

Examples:
  inspectd match "rust spots on roof sheeting"
  inspectd match --section exterior.roof "cracked tile"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchSection, "section", "s", "", "Section hint searched before the whole library")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, library, err := openReference(context.Background(), cfg)
	if err != nil {
		return err
	}

	text := joinArgs(args)
	result := library.Match(text, matchSection)

	fmt.Printf("%s %q\n", ui.Key.Render("Text:"), text)
	if matchSection != "" {
		fmt.Printf("%s %s\n", ui.Key.Render("Hint:"), matchSection)
	}
	fmt.Println(ui.Separator(60))

	if !result.Matched {
		fmt.Println(ui.Muted.Render("No comment matched."))
		return nil
	}

	confidence := string(result.Confidence)
	if result.Confidence == comments.ConfidenceExact {
		confidence = ui.Success.Render(confidence)
	} else {
		confidence = ui.Warning.Render(confidence)
	}

	fmt.Printf("%s %s\n", ui.Key.Render("Comment:"), result.Comment)
	fmt.Printf("%s %s %s\n", ui.Key.Render("Confidence:"), confidence,
		ui.Muted.Render(fmt.Sprintf("(score %.2f)", result.Score)))
	if result.Section != "" {
		fmt.Printf("%s %s\n", ui.Key.Render("Section:"), result.Section)
	}
	return nil
}
