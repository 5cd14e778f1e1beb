package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/grievance-portal/internal/export"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/spf13/cobra"
)

var (
	reportJSON   bool
	exportFormat string
	clearYes     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the grievance report",
	Long:  `Print totals by status and a per-department breakdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		rep, err := app.Reports.Generate(cmd.Context())
		if err != nil {
			return err
		}
		if reportJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		return rep.WriteText(cmd.OutOrStdout())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all grievances to a JSON or CSV file",
	Long:  `Write all grievances to grievance_report_<unix millis>.<json|csv> in export.dir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		file, err := app.Exports.Export(cmd.Context(), format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(app.Config.Export.Dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		path := filepath.Join(app.Config.Export.Dir, file.Name)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d grievances to %s\n", file.Count, path)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every grievance",
	Long:  `Delete every grievance. Asks for confirmation twice unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm := grievance.ClearConfirmation{First: clearYes, Second: clearYes}
		if !clearYes {
			confirm = askClearConfirmation(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		removed, err := app.Grievances.ClearAll(context.Background(), confirm)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d grievances\n", removed)
		return nil
	},
}

// askClearConfirmation asks two separate yes/no questions. Anything but "y" or
// "yes" counts as no.
func askClearConfirmation(in io.Reader, out io.Writer) grievance.ClearConfirmation {
	scanner := bufio.NewScanner(in)
	ask := func(prompt string) bool {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	}

	var c grievance.ClearConfirmation
	c.First = ask("Delete ALL grievances? [y/N] ")
	if c.First {
		c.Second = ask("This cannot be undone. Are you absolutely sure? [y/N] ")
	}
	return c
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json or csv")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip both confirmation prompts")

}
