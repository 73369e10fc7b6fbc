// Command migrate applies or rolls back the embedded database schema.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fivemhub/forumd/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	var (
		dsn   = flag.String("dsn", os.Getenv("FORUMD_DSN"), "postgres connection string")
		down  = flag.Bool("down", false, "roll back instead of applying")
		steps = flag.Int("steps", 0, "number of down steps (0 = all)")
	)
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "migrate: -dsn or FORUMD_DSN required")
		os.Exit(2)
	}

	var err error
	if *down {
		err = pg.MigrateDown(*dsn, *steps)
	} else {
		err = pg.Migrate(*dsn)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migrations ok")
}
