package main

import (
	"log"
	"os"

	"infra-assistant-be/internal/model"
	"infra-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

// Seeds a starter set of command shortcuts for SEED_USER_ID.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	userId := os.Getenv("SEED_USER_ID")
	if userId == "" {
		log.Fatal("Error: SEED_USER_ID is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	shortcuts := []model.CommandShortcut{
		{Command: "/health", Description: "Overall system health", Template: "Check the health of all running containers and report anything unhealthy."},
		{Command: "/logs", Description: "Recent error logs", Template: "Show the most recent error logs and summarize the likely cause."},
		{Command: "/ports", Description: "Exposed ports", Template: "List the exposed ports for each service and flag any conflicts."},
		{Command: "/disk", Description: "Volume usage", Template: "Report disk usage per volume and warn about volumes above 80%."},
		{Command: "/backup", Description: "Backup status", Template: "When did the last backup run and did it succeed?"},
	}

	log.Printf("Seeding command shortcuts for %s...", userId)
	for _, s := range shortcuts {
		s.UserId = userId

		var existing model.CommandShortcut
		if err := db.Where("user_id = ? AND command = ?", userId, s.Command).First(&existing).Error; err == nil {
			log.Printf("Shortcut '%s' already exists, skipping...", s.Command)
			continue
		}

		if err := db.Create(&s).Error; err != nil {
			log.Printf("Error creating shortcut '%s': %v", s.Command, err)
		} else {
			log.Printf("Created shortcut: %s", s.Command)
		}
	}

	log.Println("Shortcut seeding completed!")
}
