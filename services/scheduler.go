// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"thyknow/models"

	"github.com/go-co-op/gocron/v2"
)

// Reminder is the payload handed to the messaging layer for a due weekly prompt.
type Reminder struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	WeekID       string    `json:"week_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

type ReminderSender interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// ReminderDue reports whether p's weekly prompt should go out at now, and for which week.
// A week gets at most one reminder.
func ReminderDue(p models.UserProfile, now time.Time) (string, bool) {
	if !p.Schedule.Enabled {
		return "", false
	}
	local := now.In(Location(p.Schedule.Timezone))
	week := WeekID(local)
	if int(local.Weekday()) != p.Schedule.Day || local.Hour() != p.Schedule.Hour {
		return week, false
	}
	return week, p.LastReminderWeek != week
}

type ReminderScheduler struct {
	svc    *ProgressionService
	sender ReminderSender
	sched  gocron.Scheduler

	// Now is the scheduler's clock; tests pin it.
	Now func() time.Time
}

func NewReminderScheduler(svc *ProgressionService, sender ReminderSender) *ReminderScheduler {
	return &ReminderScheduler{svc: svc, sender: sender, Now: time.Now}
}

// RunOnce sends every due reminder and returns how many went out.
func (r *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	now := r.Now()
	profiles, err := r.svc.Profiles.ListScheduled(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range profiles {
		week, due := ReminderDue(p, now)
		if !due {
			continue
		}
		local := now.In(Location(p.Schedule.Timezone))
		rem := Reminder{
			UserID:       p.UserID,
			Username:     p.Username,
			LanguageCode: p.LanguageCode,
			WeekID:       week,
			ScheduledFor: time.Date(local.Year(), local.Month(), local.Day(), p.Schedule.Hour, 0, 0, 0, local.Location()),
		}
		if err := r.sender.SendReminder(ctx, rem); err != nil {
			log.Printf("[Scheduler] Failed to send reminder to %s: %v", p.UserID, err)
			continue
		}
		if err := r.svc.MarkReminded(ctx, p.UserID, week); err != nil {
			log.Printf("[Scheduler] Failed to mark %s reminded for %s: %v", p.UserID, week, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Start runs RunOnce at the top of every hour.
func (r *ReminderScheduler) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.CronJob("0 * * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			n, err := r.RunOnce(ctx)
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			if n > 0 {
				log.Printf("✅ Sent %d weekly reminders", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	r.sched = sched
	sched.Start()
	return nil
}

func (r *ReminderScheduler) Stop() error {
	if r.sched == nil {
		return nil
	}
	return r.sched.Shutdown()
}
