package CronJobs

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"Kudu/CarTrack"
	"Kudu/TFN"
)

// SyncScheduler runs the recurring background jobs: vehicle position sync
// every fifteen minutes and the fuel transaction import nightly.
type SyncScheduler struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	runImmediately bool

	trackingJobID cron.EntryID
	fuelJobID     cron.EntryID
}

func NewSyncScheduler(db *gorm.DB, runImmediately bool) *SyncScheduler {
	return &SyncScheduler{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		runImmediately: runImmediately,
	}
}

// Start registers and starts the jobs
func (s *SyncScheduler) Start() error {
	var err error

	s.trackingJobID, err = s.cronScheduler.AddFunc("0 */15 * * * *", func() {
		log.Println("Running scheduled vehicle position sync")
		s.runTrackingSync()
	})
	if err != nil {
		return fmt.Errorf("error scheduling tracking sync: %w", err)
	}

	s.fuelJobID, err = s.cronScheduler.AddFunc("0 0 2 * * *", func() {
		log.Println("Running scheduled fuel transaction import")
		s.runFuelImport()
	})
	if err != nil {
		return fmt.Errorf("error scheduling fuel import: %w", err)
	}

	s.cronScheduler.Start()
	log.Println("Sync scheduler started - tracking every 15 minutes, fuel import daily at 2:00 AM")

	if s.runImmediately {
		log.Println("Running initial syncs")
		go s.runTrackingSync()
		go s.runFuelImport()
	}
	return nil
}

// Stop terminates the scheduler
func (s *SyncScheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Sync scheduler stopped")
	}
}

// UpdateTrackingSchedule changes how often positions are synced.
// Format: "0 */15 * * * *" = every 15 minutes
func (s *SyncScheduler) UpdateTrackingSchedule(schedule string) error {
	s.cronScheduler.Remove(s.trackingJobID)

	var err error
	s.trackingJobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled vehicle position sync")
		s.runTrackingSync()
	})
	if err != nil {
		return fmt.Errorf("error updating tracking schedule: %w", err)
	}
	log.Printf("Tracking sync schedule updated to: %s", schedule)
	return nil
}

// RunManualSync triggers both jobs outside their schedule
func (s *SyncScheduler) RunManualSync() {
	go s.runTrackingSync()
	go s.runFuelImport()
}

func (s *SyncScheduler) runTrackingSync() {
	result, err := CarTrack.RunSync(s.db)
	if err != nil {
		log.Printf("Vehicle position sync failed: %v", err)
		return
	}
	log.Printf("Vehicle position sync complete: %d updated", result.Updated)
}

func (s *SyncScheduler) runFuelImport() {
	result, err := TFN.RunImport(s.db)
	if err != nil {
		log.Printf("Fuel transaction import failed: %v", err)
		return
	}
	log.Printf("Fuel transaction import complete: %d imported", result.Imported)
}
