// seed inserts a demo school with one account per role for local testing. Run with go run ./cmd/seed.
// Idempotent: skips everything if the demo school already exists.
package main

import (
	"context"
	"fmt"
	"log"

	accountdomain "school-management/backend/internal/account/domain"
	accountrepo "school-management/backend/internal/account/repository"
	"school-management/backend/internal/config"
	"school-management/backend/internal/db"
	"school-management/backend/internal/role"
	"school-management/backend/internal/security"
	tenantdomain "school-management/backend/internal/tenant/domain"
	tenantrepo "school-management/backend/internal/tenant/repository"
)

const (
	demoTenantCode = "demo-school"
	demoPassword   = "password123"
	// campus centre and radius used for teacher logins
	demoLatitude  = 12.9716
	demoLongitude = 77.5946
	demoRadiusM   = 200
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; set it in the environment or .env")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	tenants := tenantrepo.NewPostgresRepository(conn)
	accounts := accountrepo.NewPostgresRepository(conn)

	existing, err := tenants.GetByCode(ctx, demoTenantCode)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", demoTenantCode)
		return
	}

	passwordHash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(demoPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var emails []string
	err = db.NewTxRunner(conn).WithTx(ctx, func(ctx context.Context) error {
		tenant := &tenantdomain.Tenant{
			Code:     demoTenantCode,
			Name:     "Demo School",
			Active:   true,
			Geofence: &tenantdomain.Geofence{Latitude: demoLatitude, Longitude: demoLongitude, RadiusM: demoRadiusM},
		}
		if err := tenants.Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		for _, r := range role.All() {
			acct := &accountdomain.Account{
				TenantID:     tenant.ID,
				Email:        string(r) + "@demo-school.test",
				Name:         "Demo " + string(r),
				Role:         r,
				PasswordHash: passwordHash,
				Active:       true,
			}
			if err := accounts.Create(ctx, acct); err != nil {
				return fmt.Errorf("create %s account: %w", r, err)
			}
			emails = append(emails, acct.Email)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Tenant code: %s\n", demoTenantCode)
	for _, e := range emails {
		fmt.Printf("Login: %s / %s\n", e, demoPassword)
	}
}
