package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soscomida/soscomida/internal/infra/database/models"
)

func NewPostgres(dsn string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	return db, err
}

// activeDelegationIndexes keep at most one pending or accepted delegation per
// request. Column tags cannot express a partial index with an IN list.
var activeDelegationIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_delegation_donation
		ON delegations (donation_request_id)
		WHERE donation_request_id IS NOT NULL AND status IN ('pendente', 'aceita')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_delegation_receipt
		ON delegations (receipt_request_id)
		WHERE receipt_request_id IS NOT NULL AND status IN ('pendente', 'aceita')`,
}

func MigratePostgres(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Principal{},
		&models.DonationRequest{},
		&models.ReceiptRequest{},
		&models.Delegation{},
		&models.Campaign{},
		&models.CampaignVolunteer{},
		&models.CampaignItemPledge{},
		&models.VolunteerReport{},
		&models.Sanction{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	for _, stmt := range activeDelegationIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
