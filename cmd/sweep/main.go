// Command sweep marks family members inactive when they have not been
// active for a configurable number of days. It is the only path that
// moves a member into inactive status and is meant to run from cron.
package main

import (
	"flag"
	"log"
	"time"

	"guardianai/internal/config"
	"guardianai/internal/database"
	"guardianai/internal/kvstore"
	"guardianai/internal/models"
	"guardianai/internal/repository"
	"guardianai/internal/security"
	"guardianai/internal/service"
)

func main() {
	days := flag.Int("days", 30, "mark members inactive after this many days without activity")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	store := kvstore.NewSQLStore(db)
	familyStore := repository.NewFamilyStore(store)
	alertRepo := repository.NewAlertRepository(store)
	reportRepo := repository.NewReportRepository(store)
	inviteTokens := security.NewInviteTokens(cfg.SessionSecret, cfg.InviteTokenTTL)

	directory := service.NewDirectoryService(familyStore, alertRepo, reportRepo, nil, nil, inviteTokens)

	cutoff := time.Now().AddDate(0, 0, -*days)
	log.Printf("Sweeping members inactive since %s", cutoff.Format(time.RFC3339))

	if *dryRun {
		count, err := countSweepable(familyStore, cutoff)
		if err != nil {
			log.Fatalf("Dry run failed: %v", err)
		}
		log.Printf("Dry run: %d member(s) would be marked inactive", count)
		return
	}

	swept, err := directory.SweepInactive(cutoff)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("Sweep complete: %d member(s) marked inactive", swept)
}

// countSweepable counts the members a sweep would transition
func countSweepable(familyStore *repository.FamilyStore, cutoff time.Time) (int, error) {
	families, err := familyStore.ListAll()
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range families {
		for j := range families[i].Members {
			member := &families[i].Members[j]
			if member.Status == models.StatusActive && !member.IsOwner && member.LastActive.Before(cutoff) {
				count++
			}
		}
	}
	return count, nil
}
