package svcctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackzampolin/regdesk/internal/dashboard"
	"github.com/jackzampolin/regdesk/internal/session"
)

func TestExtractors_Empty(t *testing.T) {
	ctx := context.Background()
	if ServicesFrom(ctx) != nil {
		t.Error("ServicesFrom() should be nil")
	}
	if DashboardFrom(ctx) != nil || SessionsFrom(ctx) != nil || LoggerFrom(ctx) != nil ||
		HomeFrom(ctx) != nil || ConfigFrom(ctx) != nil {
		t.Error("extractors should return nil without services")
	}
}

func TestExtractors(t *testing.T) {
	svc := dashboard.New(dashboard.Config{})
	store := session.NewStore(0)
	logger := slog.Default()

	ctx := WithServices(context.Background(), &Services{
		Dashboard: dashboard.NewHolder(svc),
		Sessions:  store,
		Logger:    logger,
	})

	if DashboardFrom(ctx) != svc {
		t.Error("DashboardFrom() mismatch")
	}
	if SessionsFrom(ctx) != store {
		t.Error("SessionsFrom() mismatch")
	}
	if LoggerFrom(ctx) != logger {
		t.Error("LoggerFrom() mismatch")
	}
}
