// Command seed-db loads a starter catalog and an admin account into the
// database. Safe to re-run: every write is an upsert.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mikaelbfaa/cardshop/internal/repository"
)

const (
	upsertProductSQL = `INSERT INTO products (id, name, price, stock, game, card_type, rarity, image)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			game = EXCLUDED.game,
			card_type = EXCLUDED.card_type,
			rarity = EXCLUDED.rarity,
			image = EXCLUDED.image,
			updated_at = now()`

	upsertAdminSQL = `INSERT INTO users (id, name, email, cpf, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, 'ADMIN')
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = 'ADMIN'`
)

type productJSON struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Game     string          `json:"game"`
	CardType string          `json:"cardType"`
	Rarity   string          `json:"rarity"`
	Image    string          `json:"image"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
		adminCPF      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@cardshop.local", "email of the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password of the seeded admin account (or CARDSHOP_SEED_ADMIN_PASSWORD env)")
	flag.StringVar(&adminCPF, "admin-cpf", "00000000000", "CPF of the seeded admin account")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("CARDSHOP_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or CARDSHOP_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword, adminCPF); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword, adminCPF string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedAdmin(ctx, pool, adminEmail, adminPassword, adminCPF); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			uuid.New().String(), p.Name, p.Price, p.Stock, p.Game, p.CardType, p.Rarity, p.Image,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}

		slog.Info("upserted product", slog.String("name", p.Name), slog.String("game", p.Game))
	}

	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password, cpf string) error {
	slog.Info("seeding admin account", slog.String("email", email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	if _, err := pool.Exec(ctx, upsertAdminSQL,
		uuid.New().String(), "Administrator", email, cpf, string(hash),
	); err != nil {
		return errors.Wrap(err, "upsert admin account")
	}

	return nil
}
