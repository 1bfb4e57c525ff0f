package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// User is the GORM model for a project owner.
type User struct {
	ID       int64  `gorm:"primaryKey"`
	Username string `gorm:"size:255;uniqueIndex;not null"`

	CreatedAt time.Time
}

// Project is the GORM model for a saved filter set.
type Project struct {
	ID      int64  `gorm:"primaryKey"`
	UserID  int64  `gorm:"index;not null"`
	Name    string `gorm:"size:255;not null"`
	Filters string `gorm:"type:text;not null"`

	CreatedAt time.Time
}

// Postgres is the gorm-backed Projects implementation.
type Postgres struct {
	DB *gorm.DB
}

// OpenPostgres connects to url, logging slow statements to w, and migrates
// the schema.
func OpenPostgres(url string, w io.Writer) (*Postgres, error) {
	gormLogger := logger.New(
		log.New(w, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	return NewPostgres(db)
}

// NewPostgres migrates the schema on an existing connection.
func NewPostgres(db *gorm.DB) (*Postgres, error) {
	if err := db.AutoMigrate(&User{}, &Project{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) user(ctx context.Context, username string) (*User, error) {
	var u User
	err := p.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) SaveProject(ctx context.Context, username, name string, filters json.RawMessage) (int64, error) {
	if username == "" || name == "" {
		return 0, ErrMissingField
	}
	proj := Project{Name: name, Filters: string(normalizeFilters(filters))}
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u := User{Username: username}
		if err := tx.Where(User{Username: username}).FirstOrCreate(&u).Error; err != nil {
			return err
		}
		proj.UserID = u.ID
		return tx.Create(&proj).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: save project: %w", err)
	}
	return proj.ID, nil
}

func (p *Postgres) Projects(ctx context.Context, username string) ([]Summary, error) {
	out := []Summary{}
	if username == "" {
		return out, nil
	}
	u, err := p.user(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	var rows []Project
	if err := p.DB.WithContext(ctx).Where("user_id = ?", u.ID).Order("id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	for _, r := range rows {
		out = append(out, Summary{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()})
	}
	return out, nil
}

func (p *Postgres) LoadProject(ctx context.Context, id int64) (json.RawMessage, error) {
	var proj Project
	err := p.DB.WithContext(ctx).First(&proj, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load project %d: %w", id, err)
	}
	return normalizeFilters(json.RawMessage(proj.Filters)), nil
}

func (p *Postgres) DeleteProject(ctx context.Context, username string, id int64) (int64, error) {
	u, err := p.user(ctx, username)
	if err != nil {
		return 0, err
	}
	res := p.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, u.ID).Delete(&Project{})
	if res.Error != nil {
		return 0, fmt.Errorf("store: delete project %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
