package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const (
	NotifyEstimateCreated = "estimate_created"
	NotifyOrderCreated    = "order_created"
	NotifyOrderStage      = "order_stage"
	NotifyTierUpgrade     = "tier_upgrade"
	NotifyInvoiceIssued   = "invoice_issued"
)

// Notification is addressed either to one user or to everyone holding Role.
type Notification struct {
	UserID   string
	Role     Role
	Type     string
	Title    string
	Message  string
	EntityID string
}

// Notify stores a single notification.
func Notify(app core.App, n Notification) error {
	col, err := app.FindCollectionByNameOrId("notifications")
	if err != nil {
		return fmt.Errorf("find notifications collection: %w", err)
	}

	rec := core.NewRecord(col)
	rec.Set("user", n.UserID)
	rec.Set("role", string(n.Role))
	rec.Set("type", n.Type)
	rec.Set("title", n.Title)
	rec.Set("message", n.Message)
	rec.Set("entity_id", n.EntityID)
	rec.Set("read", false)

	if err := app.Save(rec); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// NotifyClientUsers sends n to every b2b user linked to clientID. It returns
// the number of notifications stored.
func NotifyClientUsers(app core.App, clientID string, n Notification) (int, error) {
	users, err := app.FindAllRecords("users", dbx.HashExp{"client": clientID})
	if err != nil {
		return 0, fmt.Errorf("find users for client %s: %w", clientID, err)
	}

	sent := 0
	for _, u := range users {
		n.UserID = u.Id
		n.Role = ""
		if err := Notify(app, n); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// NotificationFilter is the PocketBase filter selecting notifications visible
// to a user: addressed to them directly or to their role.
func NotificationFilter() string {
	return "(user = {:userId} || (user = '' && role = {:role}))"
}

// NotificationView is a notification as listed to a user.
type NotificationView struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	EntityID string    `json:"entityId"`
	Read     bool      `json:"read"`
	Created  time.Time `json:"created"`
	Age      string    `json:"age"`
}

// NotificationFromRecord converts a notifications record; Age is relative to now.
func NotificationFromRecord(rec *core.Record, now time.Time) NotificationView {
	created := rec.GetDateTime("created").Time()
	return NotificationView{
		ID:       rec.Id,
		Type:     rec.GetString("type"),
		Title:    rec.GetString("title"),
		Message:  rec.GetString("message"),
		EntityID: rec.GetString("entity_id"),
		Read:     rec.GetBool("read"),
		Created:  created,
		Age:      humanize.RelTime(created, now, "ago", "from now"),
	}
}

// ListNotifications returns the newest notifications visible to a user.
func ListNotifications(app core.App, userID string, role Role, unreadOnly bool, limit int, now time.Time) ([]NotificationView, error) {
	filter := NotificationFilter()
	if unreadOnly {
		filter += " && read = false"
	}
	records, err := app.FindRecordsByFilter(
		"notifications", filter, "-created", limit, 0,
		dbx.Params{"userId": userID, "role": string(role)},
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]NotificationView, 0, len(records))
	for _, r := range records {
		out = append(out, NotificationFromRecord(r, now))
	}
	return out, nil
}

// MarkNotificationsRead flags the given notifications (all visible ones when
// ids is empty) as read for the user. Notifications not visible to the user
// are skipped.
func MarkNotificationsRead(app core.App, userID string, role Role, ids []string) (int, error) {
	records, err := app.FindRecordsByFilter(
		"notifications", NotificationFilter()+" && read = false", "", 0, 0,
		dbx.Params{"userId": userID, "role": string(role)},
	)
	if err != nil {
		return 0, fmt.Errorf("find unread notifications: %w", err)
	}
	marked := 0
	for _, r := range records {
		if len(ids) > 0 && !slices.Contains(ids, r.Id) {
			continue
		}
		r.Set("read", true)
		if err := app.Save(r); err != nil {
			return marked, fmt.Errorf("mark notification %s read: %w", r.Id, err)
		}
		marked++
	}
	return marked, nil
}
