// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"goblin-backend/models"
	"goblin-backend/utils"

	"gorm.io/gorm"
)

// ProfileChange matches one entry of the auth service's changed-profiles
// feed. Only the campaign-relevant fields are mirrored.
type ProfileChange struct {
	XUsername      string    `json:"xUsername"`
	FollowersCount int64     `json:"followersCount"`
	ProfileImage   *string   `json:"profileImage,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// GetProfileChangesResponse is the top-level feed structure.
type GetProfileChangesResponse struct {
	Profiles []ProfileChange `json:"profiles"`
}

// ProfileSyncWorker keeps follower counts and avatars fresh on local user
// rows. It never creates users — registration owns starting points and
// referral codes — only refreshes profiles of users we already know.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, authServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     5 * time.Minute,
		baseURL:      authServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("Starting Profile Sync Worker (auth service → users)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("Profile sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Profile Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent LastUpdated among local users.
func (w *ProfileSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(last_updated) FROM users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch pulls profile changes since the given time and refreshes the
// matching local rows.
func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid auth service URL %q: %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile sync request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("auth service returned %d: %s", resp.StatusCode, string(body))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile feed: %w", err)
	}

	if len(response.Profiles) == 0 {
		return nil
	}

	var updated, skipped int
	for _, p := range response.Profiles {
		res := w.db.Model(&models.User{}).
			Where("x_username = ?", p.XUsername).
			Updates(map[string]interface{}{
				"followers_count": p.FollowersCount,
				"profile_image":   p.ProfileImage,
				"last_updated":    p.UpdatedAt,
			})
		if res.Error != nil {
			log.Printf("Failed to refresh profile for %q: %v", p.XUsername, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// Not registered with the campaign yet; registration will
			// pick the profile up when they sign in.
			skipped++
			continue
		}
		updated++
	}

	log.Printf("Profile sync: %d refreshed, %d unknown of %d received", updated, skipped, len(response.Profiles))
	return nil
}
