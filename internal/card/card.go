package card

import (
	"errors"
	"fmt"
)

// ErrInvalidCard is returned by Validate for cards the feed cannot show
var ErrInvalidCard = errors.New("invalid card")

// ImageVariant is one rendition of a card's artwork
type ImageVariant struct {
	ID         int    `json:"id"`
	FullURL    string `json:"image_url"`
	SmallURL   string `json:"image_url_small"`
	CroppedURL string `json:"image_url_cropped"`
}

// Card represents a trading card as returned by the card API
type Card struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"desc"`
	ExternalURL string         `json:"ygoprodeck_url"`
	Images      []ImageVariant `json:"card_images"`
}

// FeedPage is the batch of cards returned by a single fetch
type FeedPage []Card

// Response is the envelope the card API wraps every page in. Data is nil when
// the field is missing or null and non-nil for an empty page. Error carries
// the API's message on a rejected request.
type Response struct {
	Data  FeedPage `json:"data"`
	Error string   `json:"error,omitempty"`
}

// PrimaryImage returns the full-size URL of the first image variant
func (c Card) PrimaryImage() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0].FullURL
}

// Validate checks the fields the feed relies on
func (c Card) Validate() error {
	if c.ID < 0 {
		return fmt.Errorf("%w: negative id %d", ErrInvalidCard, c.ID)
	}
	if len(c.Images) == 0 {
		return fmt.Errorf("%w: card %d has no images", ErrInvalidCard, c.ID)
	}
	return nil
}
