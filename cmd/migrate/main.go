package main

import (
	"os"

	"github.com/pagecraft/pagecraft-backend/internal/config"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	pkglogger "github.com/pagecraft/pagecraft-backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Runs gorm automigration for the content schema. Intended for dev and
// CI databases; production migrations are applied out of band.
func main() {
	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.Init(env)

	cfg := config.LoadOrDefault("configs/config." + env + ".yaml")

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		pkglogger.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&domain.Post{},
		&domain.ModuleInstance{},
		&domain.PostModule{},
		&domain.CustomField{},
		&domain.Term{},
		&domain.PostTerm{},
		&domain.Revision{},
		&domain.ActivityLog{},
	)
	if err != nil {
		pkglogger.Fatalf("Migration failed: %v", err)
	}

	pkglogger.Infof("Migration complete")
}
