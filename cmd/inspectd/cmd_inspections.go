package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"inspectd/cmd/inspectd/ui"
	"inspectd/internal/inspection"
	"inspectd/internal/navigation"
	"inspectd/internal/store"
)

// inspectionsCmd lists stored inspections
var inspectionsCmd = &cobra.Command{
	Use:   "inspections",
	Short: "List stored inspections",
	RunE:  runInspectionsList,
}

// statusCmd reports one inspection's progress
var statusCmd = &cobra.Command{
	Use:   "status <inspection-id>",
	Short: "Show an inspection's progress and the suggested next section",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runInspectionsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Storage.DatabasePath, cfg.GetBusyTimeout())
	if err != nil {
		return fmt.Errorf("open inspection store: %w", err)
	}
	defer st.Close()

	inspections, err := st.ListInspections(context.Background())
	if err != nil {
		return fmt.Errorf("list inspections: %w", err)
	}
	if len(inspections) == 0 {
		fmt.Println("No inspections yet. Start one over MCP with the start_inspection tool.")
		return nil
	}

	fmt.Println(ui.Title.Render(fmt.Sprintf("Inspections (%d)", len(inspections))))
	fmt.Println(ui.Separator(72))
	for _, insp := range inspections {
		property := insp.Property
		if property == "" {
			property = ui.Muted.Render("(no property recorded)")
		}
		fmt.Printf("  %s  %-12s %-12s %s\n",
			ui.Key.Render(insp.ID),
			ui.StatusBadge(string(insp.Status)),
			insp.ChecklistID,
			property)
		fmt.Printf("  %-13s %s\n", "",
			ui.Muted.Render(fmt.Sprintf("updated %s, at %s",
				insp.UpdatedAt.Format("2006-01-02 15:04"), insp.CurrentSection)))
	}
	fmt.Println(ui.Separator(72))
	if stats, err := st.GetStats(); err == nil {
		fmt.Println(ui.Muted.Render(fmt.Sprintf("%d row(s) on file, %d finding(s)",
			stats["inspections"], stats["findings"])))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, library, err := openReference(context.Background(), cfg)
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Storage.DatabasePath, cfg.GetBusyTimeout())
	if err != nil {
		return fmt.Errorf("open inspection store: %w", err)
	}
	defer st.Close()

	engine := navigation.NewEngine(st, registry)

	status, err := engine.Status(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s\n", ui.Title.Render(status.InspectionID), ui.StatusBadge(string(status.Status)))
	fmt.Println(ui.Separator(60))
	fmt.Printf("Progress: %s (%d%%)   findings: %d\n",
		ui.ProgressBar(status.Progress.Completed, status.Progress.Total, 20),
		status.Progress.Percentage,
		status.TotalFindings)
	fmt.Println()

	for _, section := range status.Sections {
		row := fmt.Sprintf("  %s %-22s %s", ui.Checkmark(section.Visited), section.ID, section.Name)
		if section.Findings > 0 {
			row += ui.Muted.Render(fmt.Sprintf("  %d finding(s)", section.Findings))
		}
		fmt.Println(row)
	}

	fmt.Println(ui.Separator(60))

	findings, ferr := st.ListFindings(context.Background(), args[0])

	if status.CurrentSection.ID != "" {
		fmt.Printf("Current: %s", ui.Key.Render(status.CurrentSection.ID))
		if status.CurrentSection.Prompt != "" {
			fmt.Printf("  %s", ui.Muted.Render(status.CurrentSection.Prompt))
		}
		fmt.Println()
		for _, f := range findings {
			if f.Section != status.CurrentSection.ID {
				continue
			}
			text := f.Text
			if runes := []rune(text); len(runes) > 64 {
				text = string(runes[:61]) + "..."
			}
			fmt.Printf("   %s %s\n", ui.SeverityBadge(string(f.Severity)), text)
		}
	}

	suggestion, err := engine.Suggest(context.Background(), args[0])
	if err != nil {
		return err
	}
	if suggestion.Suggested != nil {
		fmt.Printf("Next: %s (%s)\n", ui.Key.Render(suggestion.Suggested.ID), suggestion.Suggested.Name)
	}
	fmt.Println(suggestion.Message)

	if status.Status == inspection.StatusCompleted {
		if ferr == nil {
			bucket := inspection.WorstSeverity(findings)
			line := "Conclusion: " + bucket
			if text, ok := library.Conclusion(bucket); ok {
				line += "  " + ui.Muted.Render(text)
			}
			fmt.Println(line)
		}
	} else if status.CanComplete {
		fmt.Println(ui.Success.Render("Ready to complete."))
	}
	return nil
}
