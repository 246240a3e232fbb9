package CarTrack

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"gorm.io/gorm"

	"Kudu/Models"
)

// unitPosition is one row scraped off the fleet status table
type unitPosition struct {
	UnitID       string
	Registration string
	Latitude     float64
	Longitude    float64
	Speed        int
	Ignition     string
	Timestamp    string
}

// SyncResult summarises one synchronisation run
type SyncResult struct {
	Scraped   int       `json:"scraped"`
	Updated   int       `json:"updated"`
	Unmatched int       `json:"unmatched"`
	Errors    []string  `json:"errors,omitempty"`
	RanAt     time.Time `json:"ran_at"`
}

// scrapePositions reads the fleet status table. Rows with unparseable
// coordinates are skipped and reported, never fatal.
func scrapePositions(collector *colly.Collector) ([]unitPosition, []string, error) {
	var positions []unitPosition
	var problems []string

	collector.OnHTML("table#fleet-status tbody", func(h *colly.HTMLElement) {
		h.ForEach("tr", func(_ int, tr *colly.HTMLElement) {
			var position unitPosition
			ok := true
			tr.ForEach("td", func(i int, td *colly.HTMLElement) {
				text := strings.TrimSpace(td.Text)
				switch i {
				case 0:
					position.UnitID = text
				case 1:
					position.Registration = strings.ToUpper(text)
				case 2:
					lat, err := strconv.ParseFloat(text, 64)
					if err != nil {
						ok = false
						problems = append(problems, fmt.Sprintf("unit %s: bad latitude %q", position.UnitID, text))
						return
					}
					position.Latitude = lat
				case 3:
					lng, err := strconv.ParseFloat(text, 64)
					if err != nil {
						ok = false
						problems = append(problems, fmt.Sprintf("unit %s: bad longitude %q", position.UnitID, text))
						return
					}
					position.Longitude = lng
				case 4:
					speed, _ := strconv.Atoi(text)
					position.Speed = speed
				case 5:
					position.Ignition = text
				case 6:
					// Portal shows SAST timestamps as 02-01-2006 03:04:05 PM
					parsed, err := time.Parse("02-01-2006 03:04:05 PM", text)
					if err == nil {
						position.Timestamp = parsed.Format("2006-01-02 15:04:05")
					} else {
						position.Timestamp = text
					}
				}
			})
			if ok && position.UnitID != "" {
				positions = append(positions, position)
			}
		})
	})

	if err := collector.Visit(baseURL + "/fleet/status"); err != nil {
		return nil, problems, fmt.Errorf("fetching fleet status page: %w", err)
	}
	collector.Wait()
	return positions, problems, nil
}

// SyncPositions scrapes the portal and writes the latest position onto each
// matching vehicle. Vehicles are matched by tracking unit ID first, then by
// registration number.
func SyncPositions(db *gorm.DB, clients *AuthenticatedClients) (*SyncResult, error) {
	result := &SyncResult{RanAt: time.Now()}

	positions, problems, err := scrapePositions(clients.Collector)
	if err != nil {
		return nil, err
	}
	result.Scraped = len(positions)
	result.Errors = problems

	for _, position := range positions {
		var vehicle Models.Vehicle
		err := db.Where("tracking_unit_id = ?", position.UnitID).First(&vehicle).Error
		if err == gorm.ErrRecordNotFound && position.Registration != "" {
			err = db.Where("registration_no = ?", position.Registration).First(&vehicle).Error
		}
		if err != nil {
			result.Unmatched++
			continue
		}

		updates := map[string]interface{}{
			"last_latitude":  position.Latitude,
			"last_longitude": position.Longitude,
			"last_speed":     position.Speed,
			"last_ignition":  position.Ignition,
			"last_seen_at":   position.Timestamp,
		}
		if vehicle.TrackingUnitID == "" {
			// First sighting links the unit to the vehicle
			updates["tracking_unit_id"] = position.UnitID
		}
		if err := db.Model(&vehicle).Updates(updates).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("vehicle %s: %v", vehicle.RegistrationNo, err))
			continue
		}
		result.Updated++
	}

	log.Printf("CarTrack sync: %d scraped, %d updated, %d unmatched", result.Scraped, result.Updated, result.Unmatched)
	return result, nil
}

// RunSync logs in and performs one full synchronisation
func RunSync(db *gorm.DB) (*SyncResult, error) {
	clients, err := GetClients()
	if err != nil {
		return nil, err
	}
	return SyncPositions(db, clients)
}
