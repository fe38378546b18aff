package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	repo "github.com/oksasatya/hazard-reporting/internal/domain/repository"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

type fakeUsers struct {
	byID map[string]*entity.User
	err  error
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*entity.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

// fakeReports mirrors the conditional update of the Postgres store.
type fakeReports struct {
	mu   sync.Mutex
	rows map[string]*entity.Report
	err  error
}

func newFakeReports() *fakeReports { return &fakeReports{rows: map[string]*entity.Report{}} }

func (f *fakeReports) Create(_ context.Context, r *entity.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeReports) GetByID(_ context.Context, id string) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReports) List(_ context.Context) ([]*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*entity.Report, 0, len(f.rows))
	for _, r := range f.rows {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReports) UpdateStatus(_ context.Context, ch repo.StatusChange) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[ch.ID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	allowed := false
	for _, s := range ch.From {
		if s == r.Status {
			allowed = true
		}
	}
	if !allowed {
		return nil, entity.ErrInvalidTransition
	}
	if err := r.ApplyStatus(ch.To, ch.Actor, ch.At); err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

type spyNotifier struct {
	mu    sync.Mutex
	calls []*entity.Report
	err   error
	done  chan struct{}
}

func newSpyNotifier(err error) *spyNotifier {
	return &spyNotifier{err: err, done: make(chan struct{}, 8)}
}

func (s *spyNotifier) NotifyNewReport(_ context.Context, r *entity.Report) error {
	s.mu.Lock()
	s.calls = append(s.calls, r)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *spyNotifier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[string]entity.ReportStatus
	hits    []*entity.Report
	err     error
}

func (f *fakeIndex) IndexReport(_ context.Context, r *entity.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexed == nil {
		f.indexed = map[string]entity.ReportStatus{}
	}
	f.indexed[r.ID] = r.Status
	return f.err
}

func (f *fakeIndex) SearchReports(_ context.Context, _ string, _ int) ([]*entity.Report, error) {
	return f.hits, f.err
}

type fakeImages struct {
	object      string
	contentType string
	body        []byte
}

func (f *fakeImages) UploadObject(_ context.Context, object string, r io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.object, f.contentType, f.body = object, contentType, b
	return "https://storage.googleapis.com/bucket/" + object, nil
}

type fakeOTP struct {
	requestStatus entity.OTPStatus
	checkStatus   entity.OTPStatus
	err           error
	lastPhone     string
}

func (f *fakeOTP) RequestCode(_ context.Context, phone string) (entity.OTPStatus, error) {
	f.lastPhone = phone
	return f.requestStatus, f.err
}

func (f *fakeOTP) CheckCode(_ context.Context, phone, _ string) (entity.OTPStatus, error) {
	f.lastPhone = phone
	return f.checkStatus, f.err
}

var errBoom = errors.New("boom")

func testJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("test-secret", time.Hour, "hazards-test")
}
