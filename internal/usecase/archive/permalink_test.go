package archive

import (
	"context"
	"testing"
	"time"

	"chatlog-archive/internal/domain"
)

func TestResolvePermalinkFindsPage(t *testing.T) {
	base := at(t, "2024-01-01 10:00")
	store := &stubStore{channel: testChannel}
	for i := int64(1); i <= 5; i++ {
		store.msgs = append(store.msgs, msgAt(i, base.Add(time.Duration(i)*time.Minute)))
	}
	cache := newStubCache()
	svc := newTestService(store, cache, at(t, "2024-01-05 12:00"), 2)

	target, err := svc.ResolvePermalink(context.Background(), testChannel, 4)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if target.Page != 2 {
		t.Fatalf("сообщение 4 при размере страницы 2 лежит на странице 2, получили %d", target.Page)
	}
	if target.Date.Day() != 1 || target.MessageID != 4 {
		t.Fatalf("неверная цель: %+v", target)
	}
	if cache.sets != 1 {
		t.Fatalf("результат должен быть закэширован один раз, записей: %d", cache.sets)
	}
}

func TestResolvePermalinkSecondCallServedFromCache(t *testing.T) {
	store := twoDayStore(t)
	cache := newStubCache()
	svc := newTestService(store, cache, at(t, "2024-01-05 12:00"), 150)

	first, err := svc.ResolvePermalink(context.Background(), testChannel, 2)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	scans := store.rangeCalls

	second, err := svc.ResolvePermalink(context.Background(), testChannel, 2)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if store.rangeCalls != scans {
		t.Fatalf("повторный запрос должен обслуживаться из кэша без сканирования")
	}
	if !first.Date.Equal(second.Date) || first.Page != second.Page {
		t.Fatalf("результаты должны совпадать: %+v и %+v", first, second)
	}
	if cache.sets != 1 {
		t.Fatalf("повторная запись в кэш не нужна, записей: %d", cache.sets)
	}
}

func TestResolvePermalinkUnknownMessage(t *testing.T) {
	store := twoDayStore(t)
	svc := newTestService(store, newStubCache(), at(t, "2024-01-05 12:00"), 150)

	if _, err := svc.ResolvePermalink(context.Background(), testChannel, 99); err != domain.ErrNotFound {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestResolvePermalinkForeignChannel(t *testing.T) {
	store := twoDayStore(t)
	svc := newTestService(store, newStubCache(), at(t, "2024-01-05 12:00"), 150)

	other := domain.Channel{ID: 42, Slug: "rust"}
	if _, err := svc.ResolvePermalink(context.Background(), other, 1); err != domain.ErrNotFound {
		t.Fatalf("чужое сообщение должно давать ErrNotFound, получили %v", err)
	}
}
