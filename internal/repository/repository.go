package repository

import (
	"context"
	"fmt"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")
)

// Tx is the set of row operations available inside one database transaction.
// Methods named ForUpdate take a row lock that is held until commit.
type Tx interface {
	GetOrCreateUserForUpdate(ctx context.Context, profile model.Profile) (*model.User, bool, error)
	GetUserForUpdate(ctx context.Context, telegramID int64) (*model.User, error)
	UserExists(ctx context.Context, telegramID int64) (bool, error)
	SaveUser(ctx context.Context, user *model.User) error
	UpdateContact(ctx context.Context, telegramID int64, name, phone string) error

	CreatePendingReferral(ctx context.Context, referrerID, referralID int64) (bool, error)
	GetReferralByReferralID(ctx context.Context, referralID int64) (*model.Referral, error)
	ConfirmPendingReferral(ctx context.Context, referralID int64, at time.Time) (*int64, error)
}

type Repository struct {
	db *sqlx.DB
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

// InTx runs fn inside a transaction. Any error returned by fn rolls back every
// change made through tx.
func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(&queries{tx: tx})
	})
}

type Config struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	SSLMode      string `json:"sslmode"`
	MaxOpenConns int    `json:"maxOpenConns"`
}

func New(cfg Config) (*Repository, error) {
	repo, err := Open(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		repo.db.SetMaxOpenConns(cfg.MaxOpenConns)
		repo.db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	return repo, nil
}

func Open(url string) (*Repository, error) {
	db, err := sqlx.Connect("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger().Info("Connected to database successfully")

	return &Repository{
		db: db,
	}, nil
}

func (c *Config) GetDatabaseURL() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		sslMode,
	)
}
