package main

import (
	"github.com/sangkips/investify-billing/internal/infrastructure/database"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed roles and the bootstrap admin",
	Long: `migrate runs the schema migrations and seeds permissions and roles.

When ADMIN_EMAIL and ADMIN_PASSWORD are set (or passed as flags) a
super-admin is created in ADMIN_TENANT_ID, or in a new tenant.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("admin-email", "", "Bootstrap admin email")
	migrateCmd.Flags().String("admin-password", "", "Bootstrap admin password")
	migrateCmd.Flags().String("admin-name", "", "Bootstrap admin full name")
	migrateCmd.Flags().String("admin-tenant", "", "Tenant id for the bootstrap admin")

	_ = viper.BindPFlag("ADMIN_EMAIL", migrateCmd.Flags().Lookup("admin-email"))
	_ = viper.BindPFlag("ADMIN_PASSWORD", migrateCmd.Flags().Lookup("admin-password"))
	_ = viper.BindPFlag("ADMIN_NAME", migrateCmd.Flags().Lookup("admin-name"))
	_ = viper.BindPFlag("ADMIN_TENANT_ID", migrateCmd.Flags().Lookup("admin-tenant"))
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	return migrateAndSeed(a)
}

func migrateAndSeed(a *app) error {
	if err := database.AutoMigrate(a.db, a.log); err != nil {
		return err
	}
	return database.SeedDefaultData(a.db, database.SeedOptions{
		AdminEmail:    viper.GetString("ADMIN_EMAIL"),
		AdminPassword: viper.GetString("ADMIN_PASSWORD"),
		AdminName:     viper.GetString("ADMIN_NAME"),
		TenantID:      viper.GetString("ADMIN_TENANT_ID"),
	}, a.log)
}
