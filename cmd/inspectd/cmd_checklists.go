package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"inspectd/cmd/inspectd/ui"
)

// checklistsCmd lists and inspects checklist definitions
var checklistsCmd = &cobra.Command{
	Use:   "checklists",
	Short: "List the available checklists",
	RunE:  runChecklistsList,
}

var checklistsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a checklist's sections, subareas and prompts",
	Args:  cobra.ExactArgs(1),
	RunE:  runChecklistsShow,
}

func init() {
	checklistsCmd.AddCommand(checklistsShowCmd)
}

func runChecklistsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, _, err := openReference(context.Background(), cfg)
	if err != nil {
		return err
	}

	ids := registry.Available()
	if len(ids) == 0 {
		fmt.Printf("No checklists found in %s\n", cfg.Checklists.Dir)
		return nil
	}

	fmt.Println(ui.Title.Render(fmt.Sprintf("Checklists (%d)", len(ids))))
	fmt.Println(ui.Separator(60))
	for _, id := range ids {
		cl := registry.Get(id)
		if cl == nil {
			continue
		}
		sections := len(cl.AllSections())
		fmt.Printf("  %-14s %s %s\n",
			ui.Key.Render(cl.ID),
			cl.Name,
			ui.Muted.Render(fmt.Sprintf("v%s, %s, %d sections", cl.Version, cl.Standard, sections)))
	}
	fmt.Println(ui.Separator(60))
	if def := registry.Default(); def != nil {
		fmt.Printf("Default: %s\n", ui.Key.Render(def.ID))
	}
	return nil
}

func runChecklistsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, _, err := openReference(context.Background(), cfg)
	if err != nil {
		return err
	}

	cl := registry.Get(args[0])
	if cl == nil {
		return fmt.Errorf("checklist '%s' not found. Use 'inspectd checklists' to see what is available", args[0])
	}

	fmt.Println(ui.Title.Render(fmt.Sprintf("%s (%s)", cl.Name, cl.ID)))
	fmt.Println(ui.Muted.Render(fmt.Sprintf("version %s, standard %s", cl.Version, cl.Standard)))
	fmt.Println(ui.Separator(60))

	for _, section := range cl.Sections {
		fmt.Printf("  %-20s %s\n", ui.Key.Render(section.ID), section.Name)
		if section.Prompt != "" {
			fmt.Printf("  %-20s %s\n", "", ui.Muted.Render(section.Prompt))
		}
		for _, item := range section.Items {
			fmt.Printf("  %-20s - %s\n", "", item)
		}
		for _, sub := range section.Subareas {
			fmt.Printf("    %-18s %s\n",
				ui.Key.Render(fmt.Sprintf("%s.%s", section.ID, sub.ID)), sub.Name)
			for _, item := range sub.Items {
				fmt.Printf("    %-18s - %s\n", "", item)
			}
		}
	}

	if len(cl.Conclusions) > 0 {
		fmt.Println(ui.Separator(60))
		fmt.Printf("Conclusions: %d severity levels\n", len(cl.Conclusions))
	}
	return nil
}
