// Package main provides admin management utilities for recipebox.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/models"
	"recipebox/internal/repository"

	"gorm.io/gorm"
)

// Promotes, demotes and lists accounts holding the admin role.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <username>   - Grant the admin role")
		fmt.Println("  go run ./cmd/admin demote <username>    - Revoke the admin role")
		fmt.Println("  go run ./cmd/admin list-admins          - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
			os.Exit(1)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		// connected so the cached profile is dropped along with the old role
		cache.InitRedis(cfg.RedisURL)
		setRole(db, os.Args[2], role)

	case "list-admins":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setRole(db *gorm.DB, username string, role models.Role) {
	var user models.User
	if err := db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User %q not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Username, user.ID, role)
		return
	}

	if err := repository.NewUserRepository(db).SetRole(context.Background(), user.ID, role); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("Updated %s (ID: %d) to role %s\n", user.Username, user.ID, role)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
}
