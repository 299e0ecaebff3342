package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"

	"github.com/noah-isme/webquote/internal/leads"
)

// migrate applies or rolls back the quote_requests schema.
// Exit code 0 = ok, 1 = migration error, 2 = usage error.
func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "postgres connection url")
		direction   = flag.String("direction", "up", "up, down or version")
		steps       = flag.Int("steps", 0, "apply only this many steps (negative rolls back)")
	)
	flag.Parse()

	if strings.TrimSpace(*databaseURL) == "" {
		fmt.Fprintln(os.Stderr, "migrate: -database or DATABASE_URL is required")
		os.Exit(2)
	}
	m, err := leads.NewMigrator(*databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch {
	case *steps != 0:
		err = m.Steps(*steps)
		if errors.Is(err, migrate.ErrNoChange) {
			err = nil
		}
	case *direction == "up":
		err = leads.Up(m)
	case *direction == "down":
		err = leads.Down(m)
	case *direction == "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return
		}
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("version: %d dirty: %t\n", version, dirty)
		return
	default:
		fmt.Fprintf(os.Stderr, "migrate: unknown direction %q\n", *direction)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("migrate: OK")
}
