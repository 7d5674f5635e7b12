package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.UserNotificationSettings{}, &domain.PushSubscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSettingsUpsertAndTimezone(t *testing.T) {
	repo := NewSettingsRepository(setupDB(t))
	ctx := context.Background()

	tz, err := repo.GetUserTimezone(ctx, "u1")
	if err != nil || tz != "" {
		t.Fatalf("missing user: tz=%q err=%v", tz, err)
	}

	s := &domain.UserNotificationSettings{UserID: "u1", Timezone: "America/Sao_Paulo", TelegramEnabled: true, TelegramChatID: "42"}
	if err := repo.Upsert(ctx, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s2 := &domain.UserNotificationSettings{UserID: "u1", Timezone: "Europe/Lisbon", DailyBriefMorningTime: "07:30"}
	if err := repo.Upsert(ctx, s2); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByUserID(ctx, "u1")
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if got.Timezone != "Europe/Lisbon" || got.TelegramEnabled || got.DailyBriefMorningTime != "07:30" {
		t.Fatalf("unexpected settings after upsert: %+v", got)
	}
}

func TestListUsersWithEnabledChannels(t *testing.T) {
	db := setupDB(t)
	settings := NewSettingsRepository(db)
	subs := NewSubscriptionRepository(db)
	ctx := context.Background()

	for _, s := range []*domain.UserNotificationSettings{
		{UserID: "telegram", TelegramEnabled: true},
		{UserID: "whatsapp", WhatsappEnabled: true},
		{UserID: "push", WebpushEnabled: true},
		{UserID: "push-no-subs", WebpushEnabled: true},
		{UserID: "push-disabled", WebpushEnabled: false},
		{UserID: "nothing"},
	} {
		if err := settings.Upsert(ctx, s); err != nil {
			t.Fatalf("upsert %s: %v", s.UserID, err)
		}
	}
	// "fresh" registered two browsers but never opened the settings page.
	for i, uid := range []string{"push", "push-disabled", "fresh", "fresh"} {
		if err := subs.Save(ctx, &domain.PushSubscription{UserID: uid, Endpoint: fmt.Sprintf("https://push.example/%s/%d", uid, i)}); err != nil {
			t.Fatalf("save sub: %v", err)
		}
	}

	rows, err := settings.ListUsersWithEnabledChannels(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	want := "fresh,push,telegram,whatsapp"
	if strings.Join(ids, ",") != want {
		t.Fatalf("users = %v, want %s", ids, want)
	}
	if fresh := rows[0]; !fresh.WebpushEnabled || fresh.Timezone != "" {
		t.Fatalf("subscriber without settings = %+v", fresh)
	}
}

func TestUpdateBriefWatermark(t *testing.T) {
	repo := NewSettingsRepository(setupDB(t))
	ctx := context.Background()
	if err := repo.Upsert(ctx, &domain.UserNotificationSettings{UserID: "u1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	at := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	ok, err := repo.UpdateBriefWatermark(ctx, "u1", domain.TimeOfDayMorning, at)
	if err != nil || !ok {
		t.Fatalf("first: ok=%v err=%v", ok, err)
	}
	ok, _ = repo.UpdateBriefWatermark(ctx, "u1", domain.TimeOfDayMorning, at.Add(-time.Hour))
	if ok {
		t.Fatal("older brief instant must be ignored")
	}
	if _, err := repo.UpdateBriefWatermark(ctx, "u1", domain.TimeOfDayTest, at); err == nil {
		t.Fatal("test_notification has no watermark")
	}

	got, _ := repo.GetByUserID(ctx, "u1")
	if got.LastMorningBriefAt == nil || !got.LastMorningBriefAt.Equal(at) {
		t.Fatalf("morning watermark = %v", got.LastMorningBriefAt)
	}
	if got.LastEveningBriefAt != nil {
		t.Fatal("evening watermark should be untouched")
	}
}

func TestSubscriptionSaveUpsertsByKey(t *testing.T) {
	repo := NewSubscriptionRepository(setupDB(t))
	ctx := context.Background()

	first := &domain.PushSubscription{UserID: "u1", Endpoint: "https://push.example/a", P256dh: "k1", Auth: "a1"}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	again := &domain.PushSubscription{UserID: "u1", Endpoint: "https://push.example/a", P256dh: "k2", Auth: "a2"}
	if err := repo.Save(ctx, again); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("resubscribe created a new row: %s != %s", again.ID, first.ID)
	}
	token := &domain.PushSubscription{UserID: "u1", Kind: domain.SubscriptionFCM, Token: "fcm-token"}
	if err := repo.Save(ctx, token); err != nil {
		t.Fatalf("save fcm: %v", err)
	}

	subs, err := repo.ListByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	if subs[0].P256dh != "k2" {
		t.Fatalf("keys not refreshed: %+v", subs[0])
	}
}

func TestSubscriptionDeleteForUser(t *testing.T) {
	repo := NewSubscriptionRepository(setupDB(t))
	ctx := context.Background()
	sub := &domain.PushSubscription{UserID: "u1", Endpoint: "https://push.example/a"}
	if err := repo.Save(ctx, sub); err != nil {
		t.Fatalf("save: %v", err)
	}

	ok, err := repo.DeleteForUser(ctx, "intruder", sub.ID)
	if err != nil || ok {
		t.Fatalf("foreign delete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteForUser(ctx, "u1", sub.ID)
	if err != nil || !ok {
		t.Fatalf("owner delete: ok=%v err=%v", ok, err)
	}
}
