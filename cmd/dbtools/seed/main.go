// cmd/dbtools/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/codr1/Escapade/internal/bookings"
	"github.com/codr1/Escapade/internal/db"
	"github.com/codr1/Escapade/internal/widget"
)

const (
	seedName  = "Seeded Booking"
	seedEmail = "seed@example.com"
	seedPhone = "+16502530000"
)

func main() {
	var (
		dbPath   = flag.String("db", "", "Path to SQLite database")
		filePath = flag.String("file", "", "Booked slots JSON file ([{\"date\":\"YYYY-MM-DD\",\"time\":\"HH:MM\"}])")
	)
	flag.Parse()

	if *dbPath == "" || *filePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open seed file: %v", err)
	}
	defer file.Close()

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	count, err := seed(context.Background(), database, file)
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	log.Printf("Seeded %d bookings", count)
}

// seed inserts one confirmed placeholder booking per record. Duplicate
// records are inserted as given; nothing is written if the file is malformed.
func seed(ctx context.Context, database *db.DB, r io.Reader) (int, error) {
	records, err := widget.ParseBookings(r)
	if err != nil {
		return 0, err
	}

	err = database.RunInTx(ctx, func(txdb *db.DB) error {
		for i, record := range records {
			_, err := txdb.Queries.CreateBooking(ctx, db.CreateBookingParams{
				OrderNumber:    bookings.NewOrderNumber(),
				Name:           seedName,
				Email:          seedEmail,
				Phone:          seedPhone,
				Date:           record.Date,
				Time:           record.Time,
				NumberOfPeople: 1,
				Status:         bookings.StatusConfirmed,
			})
			if err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
