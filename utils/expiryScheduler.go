package utils

import (
	"log"
	"time"

	"honors/database"
	"honors/models"

	"github.com/robfig/cron/v3"
)

// InitializeExpiryScheduler sets up the daily honor expiry sweep
func InitializeExpiryScheduler() {
	log.Println("[EXPIRY-SCHEDULER] Initializing honor expiry scheduler...")

	c := cron.New()

	// Run daily at 9 AM to persist time-derived expiry
	c.AddFunc("0 9 * * *", func() {
		log.Println("[EXPIRY-SCHEDULER] Running daily expiry sweep...")
		ExpireHonors()
	})

	c.Start()
	log.Println("[EXPIRY-SCHEDULER] Honor expiry scheduler started - runs daily at 9 AM")
}

// ExpireHonors marks active honors whose expiry date has passed as expired.
// Revoked honors are terminal and never touched; read paths derive the same
// transition between sweeps.
func ExpireHonors() {
	db := database.Database.Db
	now := time.Now()

	var dueHonors []models.Honor
	if err := db.
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", models.HonorStatusActive, now).
		Find(&dueHonors).Error; err != nil {
		log.Printf("[EXPIRY-SCHEDULER] Error fetching expiring honors: %v", err)
		return
	}

	if len(dueHonors) == 0 {
		return
	}
	log.Printf("[EXPIRY-SCHEDULER] Found %d honor(s) past expiry", len(dueHonors))

	for _, honor := range dueHonors {
		honor.AppendAudit("expired", "system")
		// Targeted update: the asset worker may be writing the assets
		// column for this row concurrently.
		err := db.Model(&models.Honor{}).Where("id = ? AND status = ?", honor.ID, models.HonorStatusActive).
			Updates(map[string]interface{}{
				"status": models.HonorStatusExpired,
				"audit":  honor.Audit,
			}).Error
		if err != nil {
			log.Printf("[EXPIRY-SCHEDULER] Error expiring honor %d: %v", honor.ID, err)
			continue
		}
		log.Printf("[EXPIRY-SCHEDULER] Honor %d expired (was due %s)", honor.ID, honor.ExpiryDate.Format(time.RFC3339))
	}
}
