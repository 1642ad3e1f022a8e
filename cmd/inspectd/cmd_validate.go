package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"inspectd/cmd/inspectd/ui"
)

// validateCmd checks the configuration and reference data
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration, checklists and comment library",
	Long: `Loads everything the server would load and reports what it found.

Run this after editing checklist YAML or the comment library to catch
malformed files before an inspection starts. Files that fail to parse
are skipped at load time, so a silent typo means a missing checklist.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("%s configuration valid\n", ui.Success.Render("✓"))

	registry, library, err := openReference(context.Background(), cfg)
	if err != nil {
		return err
	}

	ids := registry.Available()
	if len(ids) == 0 {
		fmt.Printf("%s no checklists in %s\n", ui.Warning.Render("!"), cfg.Checklists.Dir)
	} else {
		fmt.Printf("%s %d checklist(s) loaded\n", ui.Success.Render("✓"), len(ids))
		for _, id := range ids {
			cl := registry.Get(id)
			if cl == nil {
				continue
			}
			mark := ui.Success.Render("✓")
			note := fmt.Sprintf("%d sections", len(cl.AllSections()))
			if len(cl.Sections) == 0 {
				mark = ui.Warning.Render("!")
				note = "no sections"
			}
			fmt.Printf("  %s %-14s %s\n", mark, id, ui.Muted.Render(note))
		}
		if registry.Get(cfg.Checklists.Default) == nil {
			fmt.Printf("%s default checklist '%s' is not among them\n",
				ui.Warning.Render("!"), cfg.Checklists.Default)
		}
	}

	entries := library.EntryCount()
	if entries == 0 {
		fmt.Printf("%s comment library is empty (%s)\n", ui.Warning.Render("!"), cfg.Comments.LibraryPath)
	} else {
		fmt.Printf("%s comment library: %d comment(s) in %d section(s)\n",
			ui.Success.Render("✓"), entries, len(library.Sections()))
	}

	return nil
}
