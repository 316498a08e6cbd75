package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}, Required: true, Usage: "Postgres connection string"}
	return &cli.App{
		Name:  "seeder",
		Usage: "load demo data into the salon database",
		Commands: []*cli.Command{
			{
				Name:  "demo",
				Usage: "seed a branch, staff, services, inventory, coupons and customers",
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{Name: "business-name", Value: "Femina Flaunt"},
					&cli.StringFlag{Name: "password", Value: "password123", Usage: "password for every seeded staff account"},
				},
				Action: func(c *cli.Context) error {
					return withDB(c, func(ctx context.Context, tx *sql.Tx) error {
						return seedDemo(ctx, tx, c.String("business-name"), c.String("password"))
					})
				},
			},
			{
				Name:  "admin",
				Usage: "create or reset an admin account",
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name", Value: "Administrator"},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(c *cli.Context) error {
					if len(c.String("password")) < 8 {
						return errors.New("password must be at least 8 characters")
					}
					return withDB(c, func(ctx context.Context, tx *sql.Tx) error {
						return upsertStaff(ctx, tx, staffSeed{c.String("name"), c.String("email"), "admin"}, nil, c.String("password"))
					})
				},
			},
		},
	}
}

func withDB(c *cli.Context, fn func(context.Context, *sql.Tx) error) error {
	db, err := sql.Open("postgres", c.String("database-url"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Println("Seeding completed successfully!")
	return nil
}

type staffSeed struct {
	Name, Email, Role string
}

func upsertStaff(ctx context.Context, tx *sql.Tx, s staffSeed, branchID *string, password string) error {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO staff (branch_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash, role = EXCLUDED.role, is_active = TRUE`,
		branchID, s.Name, strings.ToLower(s.Email), hash, s.Role)
	if err != nil {
		return fmt.Errorf("staff %s: %w", s.Email, err)
	}
	return nil
}

func seedDemo(ctx context.Context, tx *sql.Tx, businessName, password string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE business_settings SET business_name = $1, updated_at = now() WHERE id = 1`, businessName); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	var branchID string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO branches (name, code) VALUES ('Main Branch', 'MAIN')
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`).Scan(&branchID)
	if err != nil {
		return fmt.Errorf("branch: %w", err)
	}
	log.Printf("Using branch %s", branchID)

	fmt.Println("Seeding staff...")
	for _, s := range []staffSeed{
		{"Admin User", "admin@salon.local", "admin"},
		{"Priya Manager", "priya@salon.local", "manager"},
		{"Asha Stylist", "asha@salon.local", "staff"},
		{"Ravi Stylist", "ravi@salon.local", "staff"},
	} {
		bid := &branchID
		if s.Role == "admin" {
			bid = nil
		}
		if err := upsertStaff(ctx, tx, s, bid, password); err != nil {
			return err
		}
	}

	fmt.Println("Seeding inventory...")
	stock := map[string]string{}
	for _, it := range []struct {
		Name, Category, Unit string
		Current, Min, Max    int
		Cost, Sell           string
	}{
		{"Hair Spa Cream", "Hair", "jar", 12, 4, 30, "350", "0"},
		{"Facial Kit", "Skin", "kit", 8, 3, 20, "420", "0"},
		{"Hair Colour", "Hair", "tube", 3, 5, 40, "280", "450"},
		{"Shampoo 1L", "Hair", "bottle", 10, 2, 15, "600", "0"},
	} {
		var id string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO inventory_items (branch_id, name, category, unit, current_stock, min_stock, max_stock, cost_price, selling_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			branchID, it.Name, it.Category, it.Unit, it.Current, it.Min, it.Max, it.Cost, it.Sell).Scan(&id)
		if err != nil {
			return fmt.Errorf("inventory %s: %w", it.Name, err)
		}
		stock[it.Name] = id
	}

	fmt.Println("Seeding services...")
	for _, svc := range []struct {
		Name, Category, Price string
		Duration              int
		Variants              []string
		Uses                  map[string]int
	}{
		{"Haircut", "Hair", "350", 30, []string{"Men", "Women", "Kids"}, nil},
		{"Hair Spa", "Hair", "1200", 60, []string{"Regular", "Long Hair"}, map[string]int{"Hair Spa Cream": 1}},
		{"Global Colour", "Hair", "2500", 120, []string{"Regular"}, map[string]int{"Hair Colour": 2}},
		{"Classic Facial", "Skin", "900", 45, []string{"Regular"}, map[string]int{"Facial Kit": 1}},
		{"Manicure", "Nails", "500", 40, []string{"Regular", "Gel"}, nil},
	} {
		var id string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO services (branch_id, name, category, price, duration_minutes, tax_rate, variants)
			VALUES ($1, $2, $3, $4, $5, 18, $6)
			RETURNING id`,
			branchID, svc.Name, svc.Category, svc.Price, svc.Duration, pq.Array(svc.Variants)).Scan(&id)
		if err != nil {
			return fmt.Errorf("service %s: %w", svc.Name, err)
		}
		for item, qty := range svc.Uses {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO service_consumables (service_id, inventory_item_id, quantity) VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`, id, stock[item], qty); err != nil {
				return fmt.Errorf("consumable %s: %w", item, err)
			}
		}
	}

	fmt.Println("Seeding coupons...")
	now := time.Now().UTC()
	for _, cp := range []struct {
		Code, Description, Type, Value, Min, Max string
		Limit                                    int
	}{
		{"WELCOME10", "10% off the first visit", "percentage", "10", "500", "300", 500},
		{"SAVE20", "20% off above Rs. 1000", "percentage", "20", "1000", "500", 200},
		{"FLAT100", "Rs. 100 off", "flat", "100", "800", "100", 100},
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO coupons (code, description, type, value, min_amount, max_discount, usage_limit, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (code) DO NOTHING`,
			cp.Code, cp.Description, cp.Type, cp.Value, cp.Min, cp.Max, cp.Limit, now.AddDate(0, 0, -1), now.AddDate(0, 6, 0)); err != nil {
			return fmt.Errorf("coupon %s: %w", cp.Code, err)
		}
	}

	fmt.Println("Seeding customers...")
	for _, cu := range []struct{ Name, Phone, Email string }{
		{"Meera Iyer", "9820011111", "meera@example.com"},
		{"Kavya Nair", "9820022222", "kavya@example.com"},
		{"Rohan Shah", "9820033333", ""},
		{"Sneha Patil", "9820044444", "sneha@example.com"},
	} {
		var id string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO customers (branch_id, name, phone, email) VALUES ($1, $2, $3, $4)
			RETURNING id`, branchID, cu.Name, cu.Phone, cu.Email).Scan(&id)
		if err != nil {
			return fmt.Errorf("customer %s: %w", cu.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customer_activities (customer_id, kind, description) VALUES ($1, 'registration', 'Customer registered')`, id); err != nil {
			return fmt.Errorf("customer activity %s: %w", cu.Name, err)
		}
	}
	return nil
}
