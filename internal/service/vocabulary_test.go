package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"

	"github.com/blazen1013/setting/internal/domain/status"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// statusSourceFunc — адаптер функции к StatusSource.
type statusSourceFunc func(ctx context.Context) ([]status.Code, error)

func (f statusSourceFunc) ListStatusOptions(ctx context.Context) ([]status.Code, error) {
	return f(ctx)
}

func TestStatusVocabulary_Refresh(t *testing.T) {
	want := []status.Code{status.Working, status.Away}
	v := NewStatusVocabulary(statusSourceFunc(func(context.Context) ([]status.Code, error) {
		return want, nil
	}), testLogger())

	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := v.Codes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Codes() = %v, ожидается %v", got, want)
	}
	if v.Failed() {
		t.Error("Failed() = true после успешной загрузки")
	}
}

func TestStatusVocabulary_FailureKeepsCodes(t *testing.T) {
	fail := false
	v := NewStatusVocabulary(statusSourceFunc(func(context.Context) ([]status.Code, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []status.Code{status.OffWork}, nil
	}), testLogger())

	_ = v.Refresh(context.Background())
	fail = true
	if err := v.Refresh(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if !v.Failed() {
		t.Error("Failed() = false после ошибки")
	}
	if got := v.Codes(); len(got) != 1 || got[0] != status.OffWork {
		t.Errorf("Codes() = %v, прежний набор должен сохраниться", got)
	}
}

func TestStatusVocabulary_StaleResponseIgnored(t *testing.T) {
	first := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	v := NewStatusVocabulary(statusSourceFunc(func(context.Context) ([]status.Code, error) {
		calls++
		if calls == 1 {
			close(first)
			<-release
			return []status.Code{"OLD"}, nil
		}
		return []status.Code{"NEW"}, nil
	}), testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = v.Refresh(context.Background())
	}()

	<-first
	// Второй запрос начат и завершён раньше первого
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	close(release)
	<-done

	if got := v.Codes(); len(got) != 1 || got[0] != "NEW" {
		t.Errorf("Codes() = %v, устаревший ответ не должен перезаписать новый", got)
	}
}
