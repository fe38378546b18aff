package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	repo "github.com/oksasatya/hazard-reporting/internal/domain/repository"
)

// MaxImageBytes caps report image uploads.
const MaxImageBytes = 5 << 20

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Notifier is the Notification Sink. It is called after a report is stored and its
// failure never fails the submission.
type Notifier interface {
	NotifyNewReport(ctx context.Context, r *entity.Report) error
}

// Indexer keeps a search index of reports.
type Indexer interface {
	IndexReport(ctx context.Context, r *entity.Report) error
	SearchReports(ctx context.Context, q string, size int) ([]*entity.Report, error)
}

// ImageStore persists uploaded report images and returns a public URL.
type ImageStore interface {
	UploadObject(ctx context.Context, objectName string, r io.Reader, contentType string) (string, error)
}

// SubmitInput is the caller-provided part of a new report.
type SubmitInput struct {
	Description string
	Urgency     entity.Urgency
	Latitude    float64
	Longitude   float64
	ImageURL    string
}

// ReportService is the Report Lifecycle Engine.
type ReportService struct {
	Reports  repo.ReportRepository
	Notifier Notifier
	Index    Indexer
	Images   ImageStore
	Logger   *logrus.Logger
	Now      func() time.Time
	NewID    func() string
	// notifyTimeout bounds the detached notification call.
	notifyTimeout time.Duration
}

func NewReportService(reports repo.ReportRepository, notifier Notifier, index Indexer, images ImageStore, logger *logrus.Logger) *ReportService {
	return &ReportService{
		Reports:       reports,
		Notifier:      notifier,
		Index:         index,
		Images:        images,
		Logger:        logger,
		Now:           func() time.Time { return time.Now().UTC() },
		NewID:         func() string { return uuid.New().String() },
		notifyTimeout: 10 * time.Second,
	}
}

// ValidateSubmit checks a submission and returns per-field messages.
func ValidateSubmit(in SubmitInput) map[string]string {
	fields := map[string]string{}
	n := utf8.RuneCountInString(strings.TrimSpace(in.Description))
	if n < entity.DescriptionMinLen || n > entity.DescriptionMaxLen {
		fields["description"] = fmt.Sprintf("must be between %d and %d characters", entity.DescriptionMinLen, entity.DescriptionMaxLen)
	}
	if !in.Urgency.Valid() {
		fields["urgency"] = "must be one of Low, Moderate, High"
	}
	if math.IsNaN(in.Latitude) || math.IsInf(in.Latitude, 0) || in.Latitude < -90 || in.Latitude > 90 {
		fields["latitude"] = "must be a number between -90 and 90"
	}
	if math.IsNaN(in.Longitude) || math.IsInf(in.Longitude, 0) || in.Longitude < -180 || in.Longitude > 180 {
		fields["longitude"] = "must be a number between -180 and 180"
	}
	if in.ImageURL != "" {
		u, err := url.Parse(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fields["imageUrl"] = "must be an absolute http(s) URL"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// SubmitReport validates and stores a new report. caller is nil for anonymous submissions.
func (s *ReportService) SubmitReport(ctx context.Context, caller *Identity, in SubmitInput) (string, error) {
	if fields := ValidateSubmit(in); fields != nil {
		return "", ValidationError(fields)
	}
	now := s.Now()
	r := &entity.Report{
		ID:          s.NewID(),
		Description: strings.TrimSpace(in.Description),
		Urgency:     in.Urgency,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		ImageURL:    in.ImageURL,
		Status:      entity.StatusNew,
		ReportedBy:  entity.Anonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if caller != nil && caller.UserID != "" {
		r.ReportedBy = caller.UserID
	}
	if err := s.Reports.Create(ctx, r); err != nil {
		s.logError(err, "create report failed", logrus.Fields{"report_id": r.ID})
		return "", upstream(err)
	}
	s.notify(r)
	s.index(ctx, r)
	return r.ID, nil
}

func (s *ReportService) notify(r *entity.Report) {
	if s.Notifier == nil {
		return
	}
	snapshot := *r
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.Notifier.NotifyNewReport(ctx, &snapshot); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("report_id", snapshot.ID).Warn("new report notification failed")
		}
	}()
}

func (s *ReportService) index(ctx context.Context, r *entity.Report) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexReport(ctx, r); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("report_id", r.ID).Warn("index report failed")
	}
}

// UpdateStatus moves a report to status on behalf of actor. The store applies the
// change only if the current status is still a legal source.
func (s *ReportService) UpdateStatus(ctx context.Context, actor Identity, id string, status entity.ReportStatus) (*entity.Report, error) {
	if !status.Valid() {
		return nil, ValidationError(map[string]string{"status": "must be one of New, InProgress, Resolved"})
	}
	if strings.TrimSpace(id) == "" {
		return nil, ValidationError(map[string]string{"id": "is required"})
	}
	if !isReportID(id) {
		return nil, ErrNotFound
	}
	r, err := s.Reports.UpdateStatus(ctx, repo.StatusChange{
		ID:    id,
		To:    status,
		From:  entity.AllowedSources(status),
		Actor: actor.UserID,
		At:    s.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, entity.ErrInvalidTransition):
			return nil, ErrInvalidTransition
		}
		s.logError(err, "update report status failed", logrus.Fields{"report_id": id, "status": status})
		return nil, upstream(err)
	}
	s.index(ctx, r)
	return r, nil
}

// ListReports returns all reports, newest first.
func (s *ReportService) ListReports(ctx context.Context) ([]*entity.Report, error) {
	items, err := s.Reports.List(ctx)
	if err != nil {
		s.logError(err, "list reports failed", nil)
		return nil, upstream(err)
	}
	if items == nil {
		items = []*entity.Report{}
	}
	return items, nil
}

func (s *ReportService) GetReport(ctx context.Context, id string) (*entity.Report, error) {
	if !isReportID(id) {
		return nil, ErrNotFound
	}
	r, err := s.Reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logError(err, "get report failed", logrus.Fields{"report_id": id})
		return nil, upstream(err)
	}
	return r, nil
}

// isReportID reports whether id can name a stored report. Report ids are UUIDs.
func isReportID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SearchReports runs a full-text query over report descriptions.
func (s *ReportService) SearchReports(ctx context.Context, q string, size int) ([]*entity.Report, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ValidationError(map[string]string{"q": "is required"})
	}
	if s.Index == nil {
		return nil, &Error{Kind: KindUpstream, Code: "search_unavailable", Message: "search is not configured"}
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	items, err := s.Index.SearchReports(ctx, q, size)
	if err != nil {
		s.logError(err, "search reports failed", logrus.Fields{"q": q})
		return nil, upstream(err)
	}
	if items == nil {
		items = []*entity.Report{}
	}
	return items, nil
}

// UploadImage stores an image for later use as a report imageUrl.
func (s *ReportService) UploadImage(ctx context.Context, body io.Reader, size int64, contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExt[ct]
	if !ok {
		return "", ValidationError(map[string]string{"image": "must be a jpeg, png or webp image"})
	}
	if size <= 0 || size > MaxImageBytes {
		return "", ValidationError(map[string]string{"image": "must be at most 5 MiB"})
	}
	if s.Images == nil {
		return "", &Error{Kind: KindUpstream, Code: "storage_unavailable", Message: "image storage is not configured"}
	}
	object := "reports/" + s.NewID() + ext
	u, err := s.Images.UploadObject(ctx, object, io.LimitReader(body, MaxImageBytes), ct)
	if err != nil {
		s.logError(err, "upload image failed", logrus.Fields{"object": object})
		return "", upstream(err)
	}
	return u, nil
}

func (s *ReportService) logError(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}
