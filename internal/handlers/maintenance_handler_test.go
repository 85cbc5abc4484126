package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"meugestor/internal/services"
)

type mockMaintenanceService struct {
	calls []time.Time
	err   error
}

var _ services.MaintenanceServicer = (*mockMaintenanceService)(nil)

func (m *mockMaintenanceService) RunMaintenanceTick(_ context.Context, now time.Time) (*services.TickReport, error) {
	m.calls = append(m.calls, now)
	if m.err != nil {
		return nil, m.err
	}
	return &services.TickReport{}, nil
}

// newSyncMaintenanceHandler runs the background tick inline so tests can observe it.
func newSyncMaintenanceHandler(t *testing.T, svc services.MaintenanceServicer) *MaintenanceHandler {
	t.Helper()
	h := NewMaintenanceHandler(svc, testCalendar(t))
	h.background = func(fn func()) { fn() }
	return h
}

func TestMaintenanceHandler_TriggerTick(t *testing.T) {
	t.Run("accepts and runs one tick at the calendar's now", func(t *testing.T) {
		svc := &mockMaintenanceService{}
		handler := newSyncMaintenanceHandler(t, svc)
		r := gin.New()
		r.POST("/tick", handler.TriggerTick)

		rec := doRequest(r, "POST", "/tick", "")

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if len(svc.calls) != 1 {
			t.Fatalf("expected one tick, got %d", len(svc.calls))
		}
		want := time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)
		if !svc.calls[0].Equal(want) {
			t.Errorf("expected tick at %v, got %v", want, svc.calls[0])
		}
	})

	t.Run("tick failure does not change the response", func(t *testing.T) {
		svc := &mockMaintenanceService{err: errors.New("db down")}
		handler := newSyncMaintenanceHandler(t, svc)
		r := gin.New()
		r.GET("/trigger", handler.TriggerTick)

		rec := doRequest(r, "GET", "/trigger", "")

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
	})
}
