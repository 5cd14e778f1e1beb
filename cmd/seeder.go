package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/grievance-portal/internal/admin"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default admin account",
	Long:  `Seed the admin directory with the default admin when it is empty.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			log.Fatalf("failed to init app: %v", err)
		}
		defer app.Close()

		seeded, err := app.Admins.EnsureSeeded(context.Background())
		if err != nil {
			log.Fatalf("failed to seed admins: %v", err)
		}
		if !seeded {
			fmt.Println("admin directory already populated; nothing to do")
			return
		}
		fmt.Printf("Seeded default admin %q for department %q\n", admin.DefaultUsername, admin.DefaultDepartment)
	},
}
