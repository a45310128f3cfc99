// internal/notify/share.go
package notify

import (
	"net/url"
	"strings"

	"admissions-workers/internal/models"
)

// PartnerShareMailto builds the "send to partner" link with no recipient.
func PartnerShareMailto(siteURL string, analysis *models.AnalysisResult) string {
	msg, _ := RenderNotification(models.NotificationPartnerShare, Context{SiteURL: siteURL, Analysis: analysis})
	return "mailto:?subject=" + encodeComponent(msg.Subject) + "&body=" + encodeComponent(msg.Body)
}

// BookingLink is the tour booking page.
func BookingLink(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + "/booking"
}

// encodeComponent percent-encodes like a URI component; spaces become %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
