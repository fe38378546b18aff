package templates

import (
	"fmt"
	"time"
)

// ReportAlertData is the payload for the new_report template.
type ReportAlertData struct {
	AppName      string
	ReportID     string
	Description  string
	Urgency      string
	Latitude     float64
	Longitude    float64
	ImageURL     string
	ReportedBy   string
	CreatedAt    time.Time
	MapURL       string
	DashboardURL string
}

// Option pattern
type Option func(*ReportAlertData)

func WithDashboardURL(base string) Option {
	return func(d *ReportAlertData) {
		if base != "" {
			d.DashboardURL = base + "/reports/" + d.ReportID
		}
	}
}

func WithImage(url string) Option { return func(d *ReportAlertData) { d.ImageURL = url } }

// NewReportAlertData fills the map link from the coordinates, then applies options.
func NewReportAlertData(appName, reportID, description, urgency string, lat, lon float64, reportedBy string, createdAt time.Time, opts ...Option) ReportAlertData {
	d := ReportAlertData{
		AppName:     appName,
		ReportID:    reportID,
		Description: description,
		Urgency:     urgency,
		Latitude:    lat,
		Longitude:   lon,
		ReportedBy:  reportedBy,
		CreatedAt:   createdAt,
		MapURL:      fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=17/%.6f/%.6f", lat, lon, lat, lon),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// SMSText is the short alert sent to admin phones.
func (d ReportAlertData) SMSText() string {
	desc := d.Description
	if r := []rune(desc); len(r) > 80 {
		desc = string(r[:77]) + "..."
	}
	return fmt.Sprintf("[%s] %s hazard: %s (%.4f, %.4f)", d.AppName, d.Urgency, desc, d.Latitude, d.Longitude)
}
