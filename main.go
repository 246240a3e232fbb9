package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	_ "github.com/go-sql-driver/mysql"

	"Kudu/CronJobs"
	"Kudu/FiberConfig"
	"Kudu/Models"
	"Kudu/Notifications"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	Models.Connect()

	if err := Notifications.InitFirebase(); err != nil {
		log.Printf("Firebase initialization failed: %v", err)
	}

	// Background syncs are optional in development
	if os.Getenv("DISABLE_SYNC_JOBS") != "true" {
		scheduler := CronJobs.NewSyncScheduler(Models.DB, false)
		if err := scheduler.Start(); err != nil {
			log.Printf("Failed to start sync scheduler: %v", err)
		} else {
			defer scheduler.Stop()
		}
	}

	FiberConfig.FiberConfig()
}
