package events

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
)

const (
	defaultCheckInURL = "http://localhost:3000"
	qrSizePx          = 300
)

// QRCode is a scannable link to an event's check-in page.
type QRCode struct {
	EventID string `json:"eventId"`
	URL     string `json:"url"`
	// DataURL is the PNG image as a data: URL, ready for an <img> tag.
	DataURL string `json:"qrCode"`
}

// SetCheckInURL sets the page that check-in QR codes link to.
func (s *Service) SetCheckInURL(base string) {
	s.checkInURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// CheckInQR renders a QR code linking to the check-in page of event id.
func (s *Service) CheckInQR(ctx context.Context, p auth.Principal, id string) (QRCode, error) {
	if !p.HasRole(auth.RoleOfficer) {
		return QRCode{}, apperr.Forbidden("only officers can generate check-in codes")
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return QRCode{}, err
	}

	base := s.checkInURL
	if base == "" {
		base = defaultCheckInURL
	}
	link, err := url.Parse(base)
	if err != nil {
		return QRCode{}, fmt.Errorf("parse check-in url: %w", err)
	}
	q := link.Query()
	q.Set("eventId", e.ID)
	link.RawQuery = q.Encode()

	png, err := qrcode.Encode(link.String(), qrcode.Highest, qrSizePx)
	if err != nil {
		return QRCode{}, fmt.Errorf("encode qr code: %w", err)
	}
	return QRCode{
		EventID: e.ID,
		URL:     link.String(),
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}
