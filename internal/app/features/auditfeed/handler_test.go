package auditfeed_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/gatehouse/internal/app/features/apierr"
	"github.com/dalemusser/gatehouse/internal/app/features/auditfeed"
	"github.com/dalemusser/gatehouse/internal/app/store/audit"
	"github.com/dalemusser/gatehouse/internal/testutil"
	"go.uber.org/zap"
)

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	h := auditfeed.NewHandler(store, apierr.NewErrorLogger(zap.NewNop()), zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events := []audit.Event{
		{Category: audit.CategoryInvite, EventType: audit.EventInviteCreated, ActorUID: "uid-f", Success: true},
		{Category: audit.CategoryAccount, EventType: audit.EventRoleUpdated, ActorUID: "uid-f", SubjectUID: "uid-a", Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/audit?category=invite", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Events []struct {
			EventType string `json:"event_type"`
		} `json:"events"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Total != 1 || len(resp.Events) != 1 || resp.Events[0].EventType != audit.EventInviteCreated {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestServeList_BadTimeFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := auditfeed.NewHandler(audit.New(db), apierr.NewErrorLogger(zap.NewNop()), zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/audit?start=yesterday", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad start time, got %d", rec.Code)
	}
}
