package TFN

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"Kudu/Models"
)

// TFN (The Fuel Network) is the fleet's fuel-card provider. Transactions are
// pulled daily over its REST export and matched onto vehicles by the
// registration number printed on the card.

const defaultBaseURL = "https://api.tfn.co.za/v2/transactions"

// apiTransaction mirrors one record in the TFN export
type apiTransaction struct {
	TransactionRef string  `json:"transaction_ref"`
	CardNo         string  `json:"card_number"`
	Registration   string  `json:"vehicle_registration"`
	Date           string  `json:"transaction_date"` // 2006-01-02 15:04:05
	MerchantName   string  `json:"merchant_name"`
	Town           string  `json:"town"`
	Litres         float64 `json:"quantity"`
	PricePerL      float64 `json:"unit_price"`
	Amount         float64 `json:"amount"`
	Odometer       int     `json:"odometer"`
	Product        string  `json:"product_description"`
}

type apiResponse struct {
	Status bool             `json:"status"`
	Data   []apiTransaction `json:"data"`
	Meta   struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
		Total       int `json:"total"`
	} `json:"meta"`
}

// ImportResult summarises one import run
type ImportResult struct {
	Fetched   int       `json:"fetched"`
	Imported  int       `json:"imported"`
	Duplicate int       `json:"duplicate"`
	Invalid   int       `json:"invalid"`
	Unmatched int       `json:"unmatched"`
	RanAt     time.Time `json:"ran_at"`
}

func baseURL() string {
	if url := os.Getenv("TFN_API_URL"); url != "" {
		return url
	}
	return defaultBaseURL
}

// FetchTransactions pulls transactions for a date range, walking every page
func FetchTransactions(from, to time.Time) ([]apiTransaction, error) {
	token := os.Getenv("TFN_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TFN_API_TOKEN is not set")
	}

	client := &http.Client{Timeout: 60 * time.Second}
	var all []apiTransaction

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s?from=%s&to=%s&limit=500&page=%d",
			baseURL(), from.Format("2006-01-02"), to.Format("2006-01-02"), page)

		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			// Continue processing
		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, fmt.Errorf("authentication failed - check TFN_API_TOKEN")
		case http.StatusTooManyRequests:
			resp.Body.Close()
			return nil, fmt.Errorf("rate limit exceeded - try again later")
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("TFN API returned status %d: %s", resp.StatusCode, resp.Status)
		}

		var result apiResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if !result.Status {
			return nil, fmt.Errorf("TFN API returned unsuccessful status")
		}

		all = append(all, result.Data...)
		if page >= result.Meta.LastPage {
			break
		}
		// One page at a time keeps us under the provider's rate limit
		time.Sleep(500 * time.Millisecond)
	}

	log.Printf("TFN fetch: %d transactions between %s and %s",
		len(all), from.Format("2006-01-02"), to.Format("2006-01-02"))
	return all, nil
}

// validateTransaction rejects records that cannot be stored
func validateTransaction(record apiTransaction) error {
	if strings.TrimSpace(record.TransactionRef) == "" {
		return fmt.Errorf("transaction ref is empty")
	}
	if record.Litres <= 0 {
		return fmt.Errorf("invalid litres: %v", record.Litres)
	}
	if record.Amount <= 0 {
		return fmt.Errorf("invalid amount: %v", record.Amount)
	}
	if _, err := time.Parse("2006-01-02 15:04:05", record.Date); err != nil {
		return fmt.Errorf("invalid date format: %s", record.Date)
	}
	return nil
}

// normaliseRegistration strips spaces and dashes and upper-cases, so
// "ND 123-456" matches "ND123456"
func normaliseRegistration(raw string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return strings.ToUpper(replacer.Replace(raw))
}

// matchVehicle finds the vehicle a transaction belongs to: the fuel card link
// first, then the registration number
func matchVehicle(db *gorm.DB, record apiTransaction) *uint {
	var card Models.FuelCard
	if err := db.Where("card_no = ? AND is_active = ?", record.CardNo, true).First(&card).Error; err == nil {
		if card.VehicleID != nil {
			return card.VehicleID
		}
	}

	registration := normaliseRegistration(record.Registration)
	if registration == "" {
		return nil
	}
	var vehicle Models.Vehicle
	err := db.Where("REPLACE(REPLACE(UPPER(registration_no), ' ', ''), '-', '') = ?", registration).
		First(&vehicle).Error
	if err != nil {
		return nil
	}
	return &vehicle.ID
}

// StoreTransactions persists fetched transactions, deduplicating on the
// transaction ref. A ref seen before is skipped, never updated; TFN exports
// are append-only.
func StoreTransactions(db *gorm.DB, records []apiTransaction) (*ImportResult, error) {
	result := &ImportResult{Fetched: len(records), RanAt: time.Now()}

	for _, record := range records {
		if err := validateTransaction(record); err != nil {
			log.Printf("Skipping invalid TFN record %q: %v", record.TransactionRef, err)
			result.Invalid++
			continue
		}

		var existing Models.FuelTransaction
		err := db.Where("transaction_ref = ?", record.TransactionRef).First(&existing).Error
		if err == nil {
			result.Duplicate++
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return result, fmt.Errorf("checking transaction %q: %w", record.TransactionRef, err)
		}

		vehicleID := matchVehicle(db, record)
		if vehicleID == nil {
			result.Unmatched++
		}

		transaction := Models.FuelTransaction{
			TransactionRef: record.TransactionRef,
			CardNo:         record.CardNo,
			VehicleID:      vehicleID,
			RegistrationNo: normaliseRegistration(record.Registration),
			Date:           record.Date,
			MerchantName:   record.MerchantName,
			Town:           record.Town,
			Litres:         record.Litres,
			PricePerL:      record.PricePerL,
			Amount:         record.Amount,
			Odometer:       record.Odometer,
			Product:        record.Product,
		}
		if err := db.Create(&transaction).Error; err != nil {
			return result, fmt.Errorf("creating transaction %q: %w", record.TransactionRef, err)
		}
		result.Imported++
	}

	log.Printf("TFN import: %d imported, %d duplicate, %d invalid, %d unmatched",
		result.Imported, result.Duplicate, result.Invalid, result.Unmatched)
	return result, nil
}

// RunImport pulls and stores the last two days of transactions. The overlap
// with the previous run is absorbed by deduplication.
func RunImport(db *gorm.DB) (*ImportResult, error) {
	now := time.Now()
	records, err := FetchTransactions(now.AddDate(0, 0, -2), now)
	if err != nil {
		return nil, err
	}
	return StoreTransactions(db, records)
}
