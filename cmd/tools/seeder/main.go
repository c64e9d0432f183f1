// Command seeder loads demo catalog, account and pricing data for local
// development. It is idempotent: re-running updates rather than duplicates.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedCustomers(db)
	seedPriceRules(db)

	log.Println("Seeding completed successfully!")
}

type demoProduct struct {
	Slug         string
	Title        string
	Description  string
	PricePLN     int64
	PriceEUR     int64
	CompareAtPLN int64
	CompareAtEUR int64
	Stock        int
	Preorder     bool
}

func seedProducts(db *sql.DB) {
	products := []demoProduct{
		{"agrodrone-x4", "AgroDrone X4", "Entry quadcopter for field scouting with a 20 MP multispectral camera.", 1_899_900, 449_900, 0, 0, 12, false},
		{"agrodrone-x4-pro", "AgroDrone X4 Pro", "Scouting quadcopter with RTK positioning and 45 minute endurance.", 2_799_900, 659_900, 2_999_900, 699_900, 7, false},
		{"agrosprayer-s10", "AgroSprayer S10", "10 litre spraying drone for orchards and row crops.", 4_499_900, 1_059_900, 0, 0, 4, false},
		{"agrosprayer-s30", "AgroSprayer S30", "30 litre heavy spraying platform with terrain-following radar.", 8_999_900, 2_119_900, 0, 0, 0, true},
		{"fieldmapper-m2", "FieldMapper M2", "Fixed-wing mapping drone covering 300 ha per flight.", 6_499_900, 1_529_900, 6_999_900, 1_649_900, 3, false},
		{"battery-pack-xl", "Flight Battery XL", "Spare 28 Ah smart battery for the sprayer line.", 89_900, 21_900, 0, 0, 60, false},
		{"nozzle-kit-orchard", "Orchard Nozzle Kit", "Fine-droplet nozzle set for vertical canopy spraying.", 24_900, 5_900, 0, 0, 140, false},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (slug, title, description, base_price_pln, base_price_eur, compare_at_pln, compare_at_eur, stock, preorder_enabled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (slug) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				base_price_pln = EXCLUDED.base_price_pln,
				base_price_eur = EXCLUDED.base_price_eur,
				compare_at_pln = EXCLUDED.compare_at_pln,
				compare_at_eur = EXCLUDED.compare_at_eur,
				stock = EXCLUDED.stock,
				preorder_enabled = EXCLUDED.preorder_enabled,
				updated_at = now()`,
			p.Slug, p.Title, p.Description, p.PricePLN, p.PriceEUR, p.CompareAtPLN, p.CompareAtEUR, p.Stock, p.Preorder)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.Slug, err)
		}
	}
	log.Printf("Seeded %d products", len(products))
}

func seedCustomers(db *sql.DB) {
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	customers := []struct {
		Email   string
		Company string
		VATID   string
		Region  string
		Status  string
	}{
		{"zielone-pola@example.pl", "Zielone Pola Sp. z o.o.", "PL5260001246", "home", "approved"},
		{"hofgut-weide@example.de", "Hofgut Weide GmbH", "DE129273398", "foreign", "approved"},
		{"vinedos-sol@example.es", "Vinedos del Sol S.L.", "ESB12345678", "foreign", "pending"},
	}

	fmt.Println("Seeding B2B customers...")
	for _, c := range customers {
		_, err := db.Exec(`
			INSERT INTO b2b_customers (email, password_hash, company_name, vat_id, region, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO UPDATE SET
				company_name = EXCLUDED.company_name,
				vat_id = EXCLUDED.vat_id,
				region = EXCLUDED.region,
				status = EXCLUDED.status,
				updated_at = now()`,
			c.Email, hash, c.Company, c.VATID, c.Region, c.Status)
		if err != nil {
			log.Fatalf("Failed to seed customer %s: %v", c.Email, err)
		}
	}
	log.Printf("Seeded %d customers", len(customers))
}

func seedPriceRules(db *sql.DB) {
	fmt.Println("Seeding price rules...")

	// Regional rule: 5% off the sprayer line for every approved B2B account.
	for _, slug := range []string{"agrosprayer-s10", "agrosprayer-s30"} {
		_, err := db.Exec(`
			INSERT INTO b2b_price_rules (product_id, customer_id, discount_pln, discount_eur)
			SELECT id, NULL, 5, 5 FROM products WHERE slug = $1
			ON CONFLICT (product_id, COALESCE(customer_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO UPDATE SET
				discount_pln = EXCLUDED.discount_pln,
				discount_eur = EXCLUDED.discount_eur,
				updated_at = now()`, slug)
		if err != nil {
			log.Fatalf("Failed to seed regional rule for %s: %v", slug, err)
		}
	}

	// Customer rule: negotiated fixed price on the X4 Pro for the German farm.
	_, err := db.Exec(`
		INSERT INTO b2b_price_rules (product_id, customer_id, fixed_price_pln, fixed_price_eur)
		SELECT p.id, c.id, 2499900, 589900
		FROM products p, b2b_customers c
		WHERE p.slug = 'agrodrone-x4-pro' AND c.email = 'hofgut-weide@example.de'
		ON CONFLICT (product_id, COALESCE(customer_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO UPDATE SET
			fixed_price_pln = EXCLUDED.fixed_price_pln,
			fixed_price_eur = EXCLUDED.fixed_price_eur,
			updated_at = now()`)
	if err != nil {
		log.Fatalf("Failed to seed customer rule: %v", err)
	}
	log.Println("Seeded price rules")
}
