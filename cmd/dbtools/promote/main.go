// cmd/dbtools/promote/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/codr1/Escapade/internal/db"
	"github.com/codr1/Escapade/internal/users"
)

func main() {
	var (
		dbPath   = flag.String("db", "", "Path to SQLite database")
		username = flag.String("username", "", "Account to change")
		revoke   = flag.Bool("revoke", false, "Remove staff access instead of granting it")
	)
	flag.Parse()

	if *dbPath == "" || *username == "" {
		flag.Usage()
		os.Exit(1)
	}

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := promote(context.Background(), database, *username, !*revoke); err != nil {
		log.Fatalf("Promote failed: %v", err)
	}
	if *revoke {
		log.Printf("Removed staff access from %s", *username)
		return
	}
	log.Printf("Granted staff access to %s", *username)
}

// promote sets the staff flag that opens the bookings admin listing.
func promote(ctx context.Context, database *db.DB, username string, isStaff bool) error {
	return users.NewService(database, 0).SetStaff(ctx, username, isStaff)
}
