package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/citycare/clinic-opd/internal/config"
	"github.com/citycare/clinic-opd/internal/store"
	"github.com/citycare/clinic-opd/pkg/logging"
)

var (
	firstNames = []string{"Aman", "Riya", "Vikram", "Priya", "Arun", "Sneha", "Rohan", "Meera", "Karan", "Sonal",
		"Deepa", "Nitin", "Anita", "Pooja", "Rahul", "Sahil", "Nisha", "Varun", "Tina", "Jay"}
	lastNames = []string{"Sharma", "Verma", "Singh", "Patel", "Kumar", "Nair", "Joshi", "Gupta", "Reddy", "Mehta"}
	cities    = []string{"Jaipur", "Delhi", "Mumbai", "Pune", "Chennai", "Bangalore"}
	timeSlots = []string{"09:00", "09:20", "09:40", "10:00", "10:20", "10:40", "11:00", "11:20", "11:40",
		"12:00", "12:20", "12:40", "14:00", "14:20", "14:40"}
	genders = []string{"Male", "Female", "Other"}
)

func main() {
	_ = godotenv.Load()

	n := flag.Int("n", 50, "number of demo patients to create")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	db := store.Open(cfg.DSN(), logger, nil)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, db, *n); err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Println("Seeded demo data.")
}

func seed(ctx context.Context, db *store.Store, n int) error {
	patientArgs := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		name := firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
		patientArgs = append(patientArgs, []any{
			name,
			8 + rand.Intn(63),
			genders[rand.Intn(len(genders))],
			fmt.Sprintf("%d", 9000000000+rand.Int63n(100000000)),
			cities[rand.Intn(len(cities))],
		})
	}
	err := db.ExecBatch(ctx, `
		INSERT INTO patient (name, age, gender, phone, address)
		VALUES ($1, $2, $3, $4, $5)`, patientArgs)
	if err != nil {
		return fmt.Errorf("insert patients: %w", err)
	}

	ids := []int64{}
	err = db.FetchAll(ctx, `
		SELECT patient_id FROM patient ORDER BY created_at DESC LIMIT $1`,
		[]any{n},
		func(rows *sql.Rows) error {
			for rows.Next() {
				var id int64
				if err := rows.Scan(&id); err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("list patients: %w", err)
	}

	today := time.Now().Format("2006-01-02")
	apptArgs := make([][]any, 0, len(ids))
	for _, id := range ids {
		apptArgs = append(apptArgs, []any{id, today, timeSlots[rand.Intn(len(timeSlots))], "Pending"})
	}
	err = db.ExecBatch(ctx, `
		INSERT INTO appointment (patient_id, date, time_slot, status)
		VALUES ($1, $2, $3, $4)`, apptArgs)
	if err != nil {
		return fmt.Errorf("insert appointments: %w", err)
	}
	return nil
}
