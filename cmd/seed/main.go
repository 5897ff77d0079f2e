// seed creates board accounts and issues first-login temporary passwords.
//
//	go run ./cmd/seed -accounts "E001:Kim,E002:Lee"
//
// Accounts that already exist are left alone. Every account that still has no password gets a
// temporary one, printed once to stdout; the account must change it on first login.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	accountdomain "task-board/backend/internal/account/domain"
	accountrepo "task-board/backend/internal/account/repository"
	"task-board/backend/internal/config"
	"task-board/backend/internal/db"
	identityservice "task-board/backend/internal/identity/service"
	"task-board/backend/internal/security"
	"task-board/backend/internal/session"
	"task-board/backend/internal/throttle"
)

type newAccount struct {
	id, name string
}

func main() {
	accountsFlag := flag.String("accounts", "", "Comma-separated id:name pairs to create (e.g. E001:Kim,E002:Lee)")
	flag.Parse()

	accounts, err := parseAccounts(*accountsFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer conn.Close()

	tokens, err := security.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		fmt.Fprintln(os.Stderr, "token codec:", err)
		os.Exit(1)
	}
	// Only the account operations are used; the registry and throttle are never touched here.
	svc := identityservice.NewAuthService(
		accountrepo.NewPostgresRepository(conn),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		session.NewMemoryRegistry(),
		throttle.New(cfg.MaxLoginFailures, cfg.LockoutWindow()),
		identityservice.Options{MinPasswordLength: cfg.MinPasswordLength},
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, s := range accounts {
		err := svc.CreateAccount(ctx, s.id, s.name)
		switch {
		case err == nil:
			fmt.Printf("created account %s (%s)\n", s.id, s.name)
		case isUniqueViolation(err):
			fmt.Printf("account %s already exists, skipped\n", s.id)
		default:
			fmt.Fprintf(os.Stderr, "seed: create %s: %v\n", s.id, err)
			os.Exit(1)
		}
	}

	creds, err := svc.BootstrapTemporaryPasswords(ctx)
	for _, c := range creds {
		fmt.Printf("%s\t%s\n", c.AccountID, c.Password)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed: bootstrap:", err)
		os.Exit(1)
	}
	if len(creds) == 0 {
		fmt.Println("no accounts without a password")
	}
}

func parseAccounts(raw string) ([]newAccount, error) {
	var out []newAccount
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, name, ok := strings.Cut(part, ":")
		a := &accountdomain.Account{ID: strings.TrimSpace(id), DisplayName: strings.TrimSpace(name)}
		if !ok {
			return nil, fmt.Errorf("account %q: want id:name", part)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("account %q: %w", part, err)
		}
		out = append(out, newAccount{id: a.ID, name: a.DisplayName})
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
