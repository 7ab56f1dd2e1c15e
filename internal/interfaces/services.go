// Package interfaces defines the contracts between the weekly pipeline and
// its external collaborators (feed acquisition, mail submission).
package interfaces

import (
	"context"

	"github.com/ternarybob/cryptoweekly/internal/models"
)

// PriceSource acquires the raw price feed for the run's asset universe over
// the trailing 7-day window.
type PriceSource interface {
	FetchWeekly(ctx context.Context) ([]models.PricePoint, []models.Asset, error)
}

// TrendSource acquires the raw search-interest feed for the given assets over
// the same window, keyed redundantly by asset id and by symbol.
type TrendSource interface {
	FetchWeekly(ctx context.Context, universe []models.Asset) ([]models.TrendPoint, error)
}

// Attachment represents an email attachment
type Attachment struct {
	Filename    string // Filename for the attachment
	ContentType string // MIME type (e.g., "application/pdf")
	Content     []byte // Raw content bytes
}

// MailSender submits the finished report to its recipient.
type MailSender interface {
	IsConfigured() bool
	Send(ctx context.Context, subject, textBody string, attachments []Attachment) error
}
