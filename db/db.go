package db

import (
	"fmt"

	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB, err := Open(c)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", c.DBDriver).Msg("unable to open database")
	}
	return gormDB
}

// Open connects with the configured driver and runs migrations and seeds.
func Open(c *config.Config) (*GormDB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{TranslateError: true}
	if c.Env != "prod" && c.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, err
	}
	g := &GormDB{DB: gdb}
	if err := g.Init(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GormDB) Init() error {
	if err := migrate(g.DB); err != nil {
		return fmt.Errorf("unable to run migrations: %w", err)
	}
	return nil
}

func dialectorFor(c *config.Config) (gorm.Dialector, error) {
	switch c.DBDriver {
	case "postgres", "":
		logging.Info().Str("host", c.PostgresHost).Int("port", c.PostgresPort).Str("db", c.PostgresDB).Msg("connecting to postgres")
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)
		return postgres.New(postgres.Config{DSN: dsn}), nil
	case "mysql":
		logging.Info().Msg("connecting to mysql")
		return mysql.Open(c.MySQLDSN), nil
	case "sqlite":
		logging.Info().Str("path", c.SQLitePath).Msg("opening sqlite database")
		return sqlite.Open(c.SQLitePath + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
}

var defaultCategories = []models.Category{
	{Name: "Electronics", Slug: "electronics"},
	{Name: "Furniture", Slug: "furniture"},
	{Name: "Vehicles", Slug: "vehicles"},
	{Name: "Clothing", Slug: "clothing"},
	{Name: "Books", Slug: "books"},
	{Name: "Sports & Outdoors", Slug: "sports-outdoors"},
	{Name: "Home & Garden", Slug: "home-garden"},
	{Name: "Toys & Games", Slug: "toys-games"},
	{Name: "Mobile Phones", Slug: "mobile-phones"},
	{Name: "Laptops & Computers", Slug: "laptops-computers"},
	{Name: "Appliances", Slug: "appliances"},
	{Name: "Other", Slug: "other"},
}

func SeedCategories(db *gorm.DB) error {
	for _, category := range defaultCategories {
		category := category
		if err := db.Where(models.Category{Slug: category.Slug}).
			Attrs(models.Category{Name: category.Name}).
			FirstOrCreate(&category).Error; err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Listing{},
		&models.ListingImage{},
		&models.Favorite{},
		&models.ChatRoom{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	if err := SeedCategories(db); err != nil {
		return fmt.Errorf("seeding categories error: %v", err)
	}
	return nil
}
