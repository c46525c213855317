package post

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// NewFromCreateRequest builds a Post from a validated create payload.
// Titles are normalized to lower case; the publication date falls back
// to today when the payload omits it.
func NewFromCreateRequest(req CreatePostRequest) Post {
	now := time.Now().UTC()

	pubDate := now
	if req.PublicationDate != "" {
		// format already validated at bind time
		if parsed, err := time.Parse(dateLayout, req.PublicationDate); err == nil {
			pubDate = parsed
		}
	}

	return Post{
		ID:              uuid.NewString(),
		Title:           strings.ToLower(req.Title),
		Content:         req.Content,
		Author:          req.Author,
		PublicationDate: pubDate,
		Image:           req.Image,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ParseDate converts a validated YYYY-MM-DD string from an update payload.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
