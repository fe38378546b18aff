package application

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
)

type reportFixture struct {
	svc      *ReportService
	store    *fakeReports
	notifier *spyNotifier
	index    *fakeIndex
	hook     *test.Hook
	clock    time.Time
}

func newReportFixture(notifyErr error) *reportFixture {
	logger, hook := test.NewNullLogger()
	f := &reportFixture{
		store:    newFakeReports(),
		notifier: newSpyNotifier(notifyErr),
		index:    &fakeIndex{},
		hook:     hook,
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewReportService(f.store, f.notifier, f.index, nil, logger)
	seq := 0
	f.svc.NewID = func() string {
		seq++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", seq)
	}
	f.svc.Now = func() time.Time { return f.clock }
	return f
}

func (f *reportFixture) tick(d time.Duration) { f.clock = f.clock.Add(d) }

func waitNotified(t *testing.T, n *spyNotifier) {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

var gasLeak = SubmitInput{Description: "Gas leak near 5th ave", Urgency: entity.UrgencyHigh, Latitude: 12.34, Longitude: 56.78}

var admin = Identity{UserID: "admin-1", Role: entity.RoleAdmin}

func TestSubmitReport_Scenario(t *testing.T) {
	f := newReportFixture(nil)

	id, err := f.svc.SubmitReport(context.Background(), nil, gasLeak)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	waitNotified(t, f.notifier)

	r, err := f.svc.GetReport(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, r.Status)
	assert.Nil(t, r.ResolvedAt)
	assert.Equal(t, entity.Anonymous, r.ReportedBy)
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, entity.StatusNew, f.index.indexed[id])
}

func TestSubmitReport_ReporterIsCaller(t *testing.T) {
	f := newReportFixture(nil)

	id, err := f.svc.SubmitReport(context.Background(), &Identity{UserID: "rep-1", Role: entity.RoleReporter}, gasLeak)
	require.NoError(t, err)
	waitNotified(t, f.notifier)

	r, _ := f.svc.GetReport(context.Background(), id)
	assert.Equal(t, "rep-1", r.ReportedBy)
}

func TestSubmitReport_NotificationFailureDoesNotFail(t *testing.T) {
	f := newReportFixture(errBoom)

	id, err := f.svc.SubmitReport(context.Background(), nil, gasLeak)
	require.NoError(t, err)
	waitNotified(t, f.notifier)

	assert.Eventually(t, func() bool {
		for _, e := range f.hook.AllEntries() {
			if e.Level == logrus.WarnLevel && e.Data["report_id"] == id {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	_, err = f.svc.GetReport(context.Background(), id)
	assert.NoError(t, err)
}

func TestSubmitReport_Validation(t *testing.T) {
	cases := map[string]SubmitInput{
		"description": {Description: "short", Urgency: entity.UrgencyLow},
		"urgency":     {Description: "Fallen tree on road", Urgency: "Critical"},
		"latitude":    {Description: "Fallen tree on road", Urgency: entity.UrgencyLow, Latitude: 91},
		"longitude":   {Description: "Fallen tree on road", Urgency: entity.UrgencyLow, Longitude: -181},
		"imageUrl":    {Description: "Fallen tree on road", Urgency: entity.UrgencyLow, ImageURL: "not a url"},
	}
	for field, in := range cases {
		f := newReportFixture(nil)
		_, err := f.svc.SubmitReport(context.Background(), nil, in)
		require.Error(t, err, field)
		ae := AsError(err)
		assert.Equal(t, KindValidation, ae.Kind, field)
		assert.Contains(t, ae.Fields, field)
		assert.Zero(t, f.notifier.count(), field)
		assert.Empty(t, f.store.rows, field)
	}

	long := SubmitInput{Description: strings.Repeat("x", entity.DescriptionMaxLen+1), Urgency: entity.UrgencyLow}
	assert.NotNil(t, ValidateSubmit(long))
	exact := SubmitInput{Description: strings.Repeat("x", entity.DescriptionMaxLen), Urgency: entity.UrgencyLow}
	assert.Nil(t, ValidateSubmit(exact))
}

func TestListReports_NewestFirst(t *testing.T) {
	f := newReportFixture(nil)
	first, err := f.svc.SubmitReport(context.Background(), nil, gasLeak)
	require.NoError(t, err)
	f.tick(time.Minute)
	second, err := f.svc.SubmitReport(context.Background(), nil, gasLeak)
	require.NoError(t, err)

	items, err := f.svc.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second, items[0].ID)
	assert.Equal(t, first, items[1].ID)
	assert.Equal(t, entity.StatusNew, items[0].Status)
	assert.Nil(t, items[0].ResolvedAt)
}

func TestListReports_EmptyIsNotNil(t *testing.T) {
	f := newReportFixture(nil)
	items, err := f.svc.ListReports(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestUpdateStatus_ResolveScenario(t *testing.T) {
	f := newReportFixture(nil)
	id, err := f.svc.SubmitReport(context.Background(), nil, gasLeak)
	require.NoError(t, err)
	created := f.clock

	f.tick(time.Hour)
	r, err := f.svc.UpdateStatus(context.Background(), admin, id, entity.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResolved, r.Status)
	require.NotNil(t, r.ResolvedAt)
	assert.Equal(t, f.clock, *r.ResolvedAt)
	assert.Equal(t, f.clock, r.UpdatedAt)
	assert.True(t, r.UpdatedAt.After(created))
	assert.Equal(t, "admin-1", r.AssignedTo)
	assert.Equal(t, entity.StatusResolved, f.index.indexed[id])
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newReportFixture(nil)
	id, err := f.svc.SubmitReport(context.Background(), nil, gasLeak)
	require.NoError(t, err)

	f.tick(time.Minute)
	r, err := f.svc.UpdateStatus(context.Background(), admin, id, entity.StatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, r.ResolvedAt)

	f.tick(time.Minute)
	r, err = f.svc.UpdateStatus(context.Background(), admin, id, entity.StatusInProgress)
	require.NoError(t, err, "same-state update is a no-op")
	assert.Equal(t, f.clock, r.UpdatedAt)

	_, err = f.svc.UpdateStatus(context.Background(), admin, id, entity.StatusNew)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.tick(time.Minute)
	resolvedAt := f.clock
	_, err = f.svc.UpdateStatus(context.Background(), admin, id, entity.StatusResolved)
	require.NoError(t, err)

	for _, to := range []entity.ReportStatus{entity.StatusNew, entity.StatusInProgress} {
		_, err = f.svc.UpdateStatus(context.Background(), admin, id, to)
		assert.ErrorIs(t, err, ErrInvalidTransition, "Resolved -> %s", to)
	}

	f.tick(time.Minute)
	r, err = f.svc.UpdateStatus(context.Background(), admin, id, entity.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, resolvedAt, *r.ResolvedAt)
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newReportFixture(nil)

	_, err := f.svc.UpdateStatus(context.Background(), admin, "missing", entity.StatusResolved)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateStatus(context.Background(), admin, "missing", entity.ReportStatus("Closed"))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestMalformedReportIDNeverReachesStore(t *testing.T) {
	f := newReportFixture(nil)
	f.store.err = errBoom

	_, err := f.svc.GetReport(context.Background(), "1 OR 1=1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateStatus(context.Background(), admin, "r-1", entity.StatusResolved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchReports(t *testing.T) {
	f := newReportFixture(nil)
	f.index.hits = []*entity.Report{{ID: "r-9"}}

	items, err := f.svc.SearchReports(context.Background(), "gas", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.SearchReports(context.Background(), "  ", 10)
	assert.Equal(t, KindValidation, KindOf(err))

	f.svc.Index = nil
	_, err = f.svc.SearchReports(context.Background(), "gas", 10)
	assert.Equal(t, KindUpstream, KindOf(err))
}

func TestUploadImage(t *testing.T) {
	f := newReportFixture(nil)
	images := &fakeImages{}
	f.svc.Images = images

	u, err := f.svc.UploadImage(context.Background(), bytes.NewReader([]byte("png-bytes")), 9, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "reports/00000000-0000-4000-8000-000000000001.png", images.object)
	assert.Equal(t, "image/png", images.contentType)
	assert.True(t, strings.HasSuffix(u, "reports/00000000-0000-4000-8000-000000000001.png"))

	_, err = f.svc.UploadImage(context.Background(), bytes.NewReader(nil), 10, "application/pdf")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.UploadImage(context.Background(), bytes.NewReader(nil), MaxImageBytes+1, "image/jpeg")
	assert.Equal(t, KindValidation, KindOf(err))
}
