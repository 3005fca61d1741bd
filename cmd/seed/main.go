// Dev fixture seeder: wipes and repopulates the local database with test
// accounts and a few small uploads pushed through the real ingestion
// pipeline, so listing and download have something to show.
package main

import (
	"context"
	"log"

	"packetdrop/internal/config"
	"packetdrop/internal/database"
	"packetdrop/internal/domain"
	"packetdrop/internal/domain/upload"
	"packetdrop/internal/repository"
	"packetdrop/internal/storage"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(&domain.User{}, &upload.Upload{}); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM uploads")
	db.Exec("DELETE FROM users")

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := &domain.User{
		Email:        "admin@packetdrop.local",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Admin",
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal("create admin:", err)
	}

	userHash, _ := bcrypt.GenerateFromPassword([]byte("user123"), bcrypt.DefaultCost)
	alice := &domain.User{
		Email:        "alice@packetdrop.local",
		PasswordHash: string(userHash),
		Role:         domain.RoleUser,
		Name:         "Alice",
	}
	if err := users.Create(ctx, alice); err != nil {
		log.Fatal("create user:", err)
	}

	log.Println("Seeding uploads...")

	svc := upload.NewService(
		upload.NewRepository(db),
		storage.NewDiskStore(cfg.UploadDir),
		users,
		upload.NewPolicy(cfg.AdminRoster),
		nil,
	)

	samples := []struct {
		name    string
		content []byte
		owner   *int64
	}{
		{"lab-topology.pkt", []byte("sample packet tracer topology"), &alice.ID},
		{"configs.tar.gz", []byte("sample gzipped tarball"), &alice.ID},
		{"firmware.zip", []byte("sample firmware bundle"), nil},
	}
	for _, s := range samples {
		if _, err := svc.Ingest(ctx, upload.IngestInput{
			Content:      s.content,
			OriginalName: s.name,
			OwnerID:      s.owner,
		}); err != nil {
			log.Fatalf("seed upload %s: %v", s.name, err)
		}
	}

	log.Println("Seed complete.")
	log.Println("  admin@packetdrop.local / admin123")
	log.Println("  alice@packetdrop.local / user123")
}
