// seed provisions the initial admin account: it creates a confirmed user at
// the identity provider and grants the admin role.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"netnest/backend/internal/config"
	"netnest/backend/internal/db"
	"netnest/backend/internal/provider/gotrue"
	"netnest/backend/internal/roles"
	rolesdomain "netnest/backend/internal/roles/domain"
	rolesrepo "netnest/backend/internal/roles/repository"
)

func main() {
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", "", "Admin password (required)")
	phone := flag.String("phone", "", "Admin phone (optional)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("usage: seed -email admin@example.com -password <password> [-phone <phone>]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.AuthProviderURL == "" {
		log.Fatal("AUTH_PROVIDER_URL is not set; seeding requires a real identity provider")
	}
	if cfg.AuthServiceKey == "" {
		log.Fatal("AUTH_SERVICE_KEY is not set; user provisioning is an admin-level provider operation")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	idp := gotrue.NewClient(cfg.AuthProviderURL, cfg.AuthAnonKey, cfg.AuthServiceKey)
	user, err := idp.CreateUser(ctx, *email, *password, *phone)
	if err != nil {
		log.Fatalf("create user: %v", err)
	}

	// Granting a role the user already holds is a no-op, so reruns are safe
	// once the provider-side account exists.
	rolesSvc := roles.NewService(rolesrepo.NewPostgresRepository(conn), nil)
	if err := rolesSvc.Grant(ctx, user.ID, user.ID, rolesdomain.RoleAdmin); err != nil {
		log.Fatalf("grant admin role: %v", err)
	}

	log.Printf("Seeded admin %s (%s).", *email, user.ID)
}
