package Notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"Kudu/Models"
)

var messagingClient *messaging.Client

// InitFirebase sets up the FCM client from the service-account file named by
// FIREBASE_CREDENTIALS_FILE. Push notifications are optional: when the file
// is absent the app runs with notifications disabled.
func InitFirebase() error {
	credentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if credentialsFile == "" {
		credentialsFile = "serviceAccountKey.json"
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		log.Println("Firebase credentials not found, push notifications disabled")
		return nil
	}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return fmt.Errorf("initializing firebase messaging: %w", err)
	}

	messagingClient = client
	log.Println("Firebase messaging initialized")
	return nil
}

// Enabled reports whether a messaging client is available.
func Enabled() bool {
	return messagingClient != nil
}

// sendToUser pushes one notification to every registered device of a user.
// Failures are logged, never returned: a dead device token must not fail the
// dispatch flow that triggered the push.
func sendToUser(db *gorm.DB, userID uint, title, body string, data map[string]string) {
	if messagingClient == nil {
		return
	}

	var tokens []Models.FCMToken
	if err := db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		log.Printf("failed to load FCM tokens for user %d: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, token := range tokens {
		message := &messaging.Message{
			Token: token.Token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}
		if _, err := messagingClient.Send(ctx, message); err != nil {
			log.Printf("failed to send notification to user %d: %v", userID, err)
			if messaging.IsUnregistered(err) {
				// Token was revoked on the device side; drop the row.
				db.Delete(&Models.FCMToken{}, token.ID)
			}
		}
	}
}

// SendLoadAssigned notifies the driver's account that a load was assigned to
// them. No-op when the driver has no linked account or tokens.
func SendLoadAssigned(db *gorm.DB, load *Models.Load) {
	if load.DriverID == nil {
		return
	}

	var account Models.User
	if err := db.Where("driver_id = ?", *load.DriverID).First(&account).Error; err != nil {
		return
	}

	body := fmt.Sprintf("Load %s has been assigned to you", load.LoadNo)
	if load.RegistrationNo != "" {
		body = fmt.Sprintf("Load %s has been assigned to you on %s", load.LoadNo, load.RegistrationNo)
	}
	sendToUser(db, account.ID, "New Load Assigned", body, map[string]string{
		"type":    "load_assigned",
		"load_id": fmt.Sprint(load.ID),
		"load_no": load.LoadNo,
	})
}

// SendTripSheetReady notifies the driver that an optimized trip sheet is
// available for their load.
func SendTripSheetReady(db *gorm.DB, load *Models.Load, sheet *Models.TripSheet) {
	if load.DriverID == nil {
		return
	}

	var account Models.User
	if err := db.Where("driver_id = ?", *load.DriverID).First(&account).Error; err != nil {
		return
	}

	body := fmt.Sprintf("Trip sheet %s is ready (%d stops, %.0f km)",
		sheet.TripSheetNo, len(sheet.Stops), sheet.TotalDistanceKm)
	sendToUser(db, account.ID, "Trip Sheet Ready", body, map[string]string{
		"type":          "trip_sheet_ready",
		"trip_sheet_id": fmt.Sprint(sheet.ID),
	})
}
