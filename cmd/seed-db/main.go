package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/scoop/internal/domain/auth"
	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
	"github.com/xenking/scoop/internal/repository"
)

type flavorJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
}

type options struct {
	databaseURL  string
	flavorsFile  string
	apiKey       string
	apiKeyPepper string
	demoEmail    string
	demoPassword string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.flavorsFile, "flavors-file", "db/seed/flavors.json", "path to flavors JSON file, optionally gzip compressed (.gz)")
	flag.StringVar(&opts.apiKey, "api-key", "", "admin API key to seed (or SCOOP_SEED_API_KEY env)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SCOOP_API_KEY_PEPPER env)")
	flag.StringVar(&opts.demoEmail, "demo-email", "", "email of an optional demo customer")
	flag.StringVar(&opts.demoPassword, "demo-password", "sorvete123", "password of the demo customer")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("SCOOP_SEED_API_KEY")
	}
	if opts.apiKey == "" {
		slog.Error("API key is required: set --api-key or SCOOP_SEED_API_KEY")
		os.Exit(1)
	}
	if opts.apiKeyPepper == "" {
		opts.apiKeyPepper = os.Getenv("SCOOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedFlavors(ctx, repository.NewFlavorRepository(pool), opts.flavorsFile); err != nil {
		return errors.Wrap(err, "seed flavors")
	}

	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), opts.apiKey, opts.apiKeyPepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if opts.demoEmail != "" {
		if err := seedDemoCustomer(ctx, repository.NewCustomerRepository(pool), opts.demoEmail, opts.demoPassword); err != nil {
			return errors.Wrap(err, "seed demo customer")
		}
	}

	return nil
}

// openCatalog opens path, transparently decompressing .gz files.
func openCatalog(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "open gzip reader")
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func readFlavors(r io.Reader) ([]flavor.Flavor, error) {
	var raw []flavorJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse flavors JSON")
	}

	flavors := make([]flavor.Flavor, 0, len(raw))
	for i, fj := range raw {
		var image string
		if fj.Image != nil {
			image = *fj.Image
		}
		f, err := flavor.New(fj.Name, fj.Description, fj.Price, image)
		if err != nil {
			return nil, errors.Wrapf(err, "flavor #%d", i)
		}
		flavors = append(flavors, f)
	}
	return flavors, nil
}

func seedFlavors(ctx context.Context, repo *repository.FlavorRepository, path string) error {
	slog.Info("reading flavors file", slog.String("path", path))

	rc, err := openCatalog(path)
	if err != nil {
		return errors.Wrap(err, "open flavors file")
	}
	defer func() { _ = rc.Close() }()

	flavors, err := readFlavors(rc)
	if err != nil {
		return err
	}

	slog.Info("upserting flavors", slog.Int("count", len(flavors)))

	for i := range flavors {
		f := &flavors[i]
		if err := repo.UpsertByName(ctx, f); err != nil {
			return errors.Wrapf(err, "upsert flavor %q", f.Name)
		}

		slog.Info("upserted flavor", slog.Int64("id", f.ID), slog.String("name", f.Name))
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	if err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashAPIKey([]byte(pepper), apiKey),
		Name:    "Default admin key",
		Scopes:  []string{auth.ScopeAdmin},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default admin key"))

	return nil
}

func seedDemoCustomer(ctx context.Context, repo *repository.CustomerRepository, email, password string) error {
	svc := customer.NewService(repo, nil)
	c, err := svc.Register(ctx, customer.Registration{
		Name:     "Cliente Demo",
		Email:    email,
		Phone:    "+55 11 90000-0000",
		Password: password,
	})
	if errors.Is(err, customer.ErrEmailTaken) {
		slog.Info("demo customer already exists", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("created demo customer", slog.Int64("id", c.ID), slog.String("email", c.Email))

	return nil
}
