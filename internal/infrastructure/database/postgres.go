package database

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/config"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Permissions checked by the HTTP layer
const (
	PermManageInvoices      = "manage-invoices"
	PermManageQuotes        = "manage-quotes"
	PermManagePayments      = "manage-payments"
	PermManageSubscriptions = "manage-subscriptions"
	PermManageCustomers     = "manage-customers"
	PermViewReports         = "view-reports"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.User{},
		&entity.Role{},
		&entity.Permission{},

		&entity.Customer{},

		&entity.Quote{},
		&entity.Invoice{},
		&entity.Payment{},
		&entity.Refund{},
		&entity.Subscription{},
		&entity.DocumentCounter{},

		&entity.IdempotencyKey{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	log.Info("database migrations completed")
	return nil
}

// SeedOptions configures the bootstrap administrator
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	TenantID      string
}

// SeedDefaultData creates permissions, roles and, if configured, an admin user
func SeedDefaultData(db *gorm.DB, opts SeedOptions, log *logger.Logger) error {
	names := []string{
		PermManageInvoices,
		PermManageQuotes,
		PermManagePayments,
		PermManageSubscriptions,
		PermManageCustomers,
		PermViewReports,
	}
	for _, name := range names {
		perm := entity.Permission{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&perm).Error; err != nil {
			log.Warnw("failed to create permission", "permission", name, "error", err)
		}
	}

	var allPermissions []entity.Permission
	if err := db.Find(&allPermissions).Error; err != nil {
		return errors.Wrap(err, "failed to load permissions")
	}

	pick := func(wanted ...string) []entity.Permission {
		var out []entity.Permission
		for _, p := range allPermissions {
			for _, w := range wanted {
				if p.Name == w {
					out = append(out, p)
				}
			}
		}
		return out
	}

	roles := map[string][]entity.Permission{
		"super-admin": allPermissions,
		"admin":       allPermissions,
		"accountant":  pick(PermManageInvoices, PermManageQuotes, PermManagePayments, PermManageCustomers, PermViewReports),
		"sales":       pick(PermManageQuotes, PermManageCustomers),
	}
	for name, perms := range roles {
		var role entity.Role
		if err := db.Where("name = ?", name).First(&role).Error; err != nil {
			role = entity.Role{Name: name, Permissions: perms}
			if err := db.Create(&role).Error; err != nil {
				log.Warnw("failed to create role", "role", name, "error", err)
			}
		}
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}

	var existing entity.User
	if err := db.Where("email = ?", opts.AdminEmail).First(&existing).Error; err == nil {
		log.Infow("admin user already exists", "email", opts.AdminEmail)
		return nil
	}

	hashed, err := utils.HashPassword(opts.AdminPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash admin password")
	}

	var saRole entity.Role
	if err := db.Where("name = ?", "super-admin").First(&saRole).Error; err != nil {
		return errors.Wrap(err, "super-admin role missing")
	}

	tenantID, err := uuid.Parse(opts.TenantID)
	if err != nil {
		tenantID = uuid.New()
	}

	firstName, lastName := opts.AdminName, ""
	if firstName == "" {
		firstName = "Super Admin"
	}
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName, lastName = firstName[:i], firstName[i+1:]
	}

	admin := entity.User{
		TenantID:  tenantID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     opts.AdminEmail,
		Password:  hashed,
		IsActive:  true,
		Roles:     []entity.Role{saRole},
	}
	if err := db.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "failed to create admin user")
	}
	log.Infow("admin user created", "email", opts.AdminEmail, "tenant_id", tenantID)
	return nil
}
