// services/scheduler.go
package services

import (
	"log"
	"time"

	"goblin-backend/models"

	"github.com/go-co-op/gocron/v2"
)

// StartActivationScheduler flips scheduled box drops live. Box maturation
// never uses a timer (readiness is derived from readyAt at request time);
// this only serves admin-scheduled template launches.
func (s *TemplateService) StartActivationScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: activate templates whose launch time has passed
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var templates []models.BoxTemplate
			now := time.Now()
			err := s.DB.Where("active = ? AND activate_at IS NOT NULL AND activate_at <= ?", false, now).
				Find(&templates).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, t := range templates {
				t.Active = true
				t.ActivateAt = nil
				if err := s.DB.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate template %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Auto-activated box template: %s", t.Name)
				}
			}
		}),
	)
}
