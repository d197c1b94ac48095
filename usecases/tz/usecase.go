package tz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"henbot/models"
	usecasecore "henbot/usecases/core"
)

// ZoneStore is the slice of the timezone service this usecase needs.
type ZoneStore interface {
	Set(userID, zoneName string) error
	All() map[string]string
}

// TimezoneUseCase handles the timezone bookkeeping commands plus the rightnow
// timestamp helper.
type TimezoneUseCase struct {
	zones     ZoneStore
	responder *usecasecore.Responder
	now       func() time.Time
}

func NewTimezoneUseCase(zones ZoneStore, responder *usecasecore.Responder) *TimezoneUseCase {
	return &TimezoneUseCase{
		zones:     zones,
		responder: responder,
		now:       time.Now,
	}
}

// SetTimezone registers the caller's IANA zone and confirms via the resolved
// surface (DM per policy).
func (u *TimezoneUseCase) SetTimezone(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	zoneName := strings.TrimSpace(args)
	if zoneName == "" {
		return u.responder.Reply(execCtx, "⚠️ Usage: `!settimezone America/New_York`")
	}

	if err := u.zones.Set(execCtx.UserID, zoneName); err != nil {
		return u.responder.Reply(execCtx,
			"❌ Invalid time zone. Please provide a valid IANA time zone (e.g., `America/New_York`).")
	}
	return u.responder.Reply(execCtx, fmt.Sprintf("✅ Your time zone has been set to **%s**.", zoneName))
}

// Timezones DMs the current local time for each unique registered zone. The
// invoking command message is removed to keep the channel tidy.
func (u *TimezoneUseCase) Timezones(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	u.responder.DeleteQuietly(execCtx.ChannelID, execCtx.MessageID)

	registered := u.zones.All()
	if len(registered) == 0 {
		return u.responder.Reply(execCtx,
			"⚠️ No users have registered a time zone yet. Use `!settimezone [timezone]` to add yours.")
	}

	unique := make(map[string]string)
	for _, zoneName := range registered {
		if _, seen := unique[zoneName]; seen {
			continue
		}
		location, err := time.LoadLocation(zoneName)
		if err != nil {
			continue
		}
		unique[zoneName] = u.now().In(location).Format("2006-01-02 03:04 PM")
	}

	zoneNames := make([]string, 0, len(unique))
	for zoneName := range unique {
		zoneNames = append(zoneNames, zoneName)
	}
	sort.Strings(zoneNames)

	var sb strings.Builder
	sb.WriteString("🌎 **Current Local Times for Registered Time Zones:**\n")
	for _, zoneName := range zoneNames {
		fmt.Fprintf(&sb, "🕒 **%s** → %s\n", zoneName, unique[zoneName])
	}
	return u.responder.Reply(execCtx, strings.TrimRight(sb.String(), "\n"))
}

// RightNow replies with a copy-pastable chat timestamp tag for the current
// moment, which the platform renders in each reader's local time.
func (u *TimezoneUseCase) RightNow(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	timestamp := u.now().UTC().Unix()
	message := fmt.Sprintf(
		"🕒 **Here's your time tag:** `<t:%d:F>`\n"+
			"📋 Copy and paste this anywhere to show the correct local time for each user.",
		timestamp)
	return u.responder.Reply(execCtx, message)
}
