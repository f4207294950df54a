// Package places searches ramen restaurants through the Google Places
// text-search API.
package places

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/toasahi/ramen-agent/internal/config"
	"github.com/toasahi/ramen-agent/internal/request"
)

const fieldMask = "places.id,places.displayName,places.formattedAddress," +
	"places.rating,places.userRatingCount,places.location,places.types," +
	"places.priceLevel,places.currentOpeningHours"

// Query narrows a ramen search. Prefecture is required; city and shop name
// refine it.
type Query struct {
	Prefecture string
	City       string
	Name       string
}

// TextQuery builds the free-text search term sent upstream
func (q Query) TextQuery() string {
	parts := make([]string, 0, 4)
	if q.Name != "" {
		parts = append(parts, q.Name)
	}
	parts = append(parts, q.Prefecture)
	if q.City != "" {
		parts = append(parts, q.City)
	}
	parts = append(parts, "ラーメン")
	return strings.Join(parts, " ")
}

// Place is one candidate ramen shop
type Place struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       float64  `json:"rating"`
	RatingCount  int      `json:"rating_count"`
	PriceLevel   string   `json:"price_level,omitempty"`
	OpeningHours []string `json:"opening_hours,omitempty"`
}

type searchRequest struct {
	TextQuery      string  `json:"textQuery"`
	IncludedType   string  `json:"includedType"`
	LanguageCode   string  `json:"languageCode"`
	RankPreference string  `json:"rankPreference"`
	MinRating      float64 `json:"minRating"`
	PageSize       int     `json:"pageSize"`
}

type wireDisplayName struct {
	Text string `json:"text"`
}

type wireOpeningHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

type wirePlace struct {
	ID                 string            `json:"id" validate:"required"`
	DisplayName        wireDisplayName   `json:"displayName"`
	FormattedAddress   string            `json:"formattedAddress"`
	Rating             float64           `json:"rating"`
	UserRatingCount    int               `json:"userRatingCount"`
	PriceLevel         string            `json:"priceLevel"`
	CurrentOpeningHours *wireOpeningHours `json:"currentOpeningHours"`
}

type searchResponse struct {
	Places []wirePlace `json:"places"`
}

// Client searches Google Places for ramen restaurants
type Client struct {
	req    *request.Client
	apiKey string
	logger zerolog.Logger
}

// NewClient creates a Places client from configuration
func NewClient(cfg config.PlacesConfig, policy request.Policy, logger zerolog.Logger) *Client {
	return &Client{
		req:    request.New(cfg.BaseURL, policy, request.WithLogger(logger)),
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// Search returns up to three ramen shops rated 4.0 or better matching the
// query. Transient upstream failures are retried by the request client; if
// they exhaust, or the response is invalid, the search degrades to an empty
// list so the surrounding pipeline keeps going.
func (c *Client) Search(ctx context.Context, q Query) []Place {
	body := searchRequest{
		TextQuery:      q.TextQuery(),
		IncludedType:   "ramen_restaurant",
		LanguageCode:   "ja",
		RankPreference: "RELEVANCE",
		MinRating:      4.0,
		PageSize:       3,
	}

	header := http.Header{}
	header.Set("X-Goog-Api-Key", c.apiKey)
	header.Set("X-Goog-FieldMask", fieldMask)

	var resp searchResponse
	err := c.req.Do(ctx, request.Options{
		Method: http.MethodPost,
		Path:   "/places:searchText",
		Header: header,
		Body:   body,
	}, &resp)
	if err != nil {
		c.logger.Warn().Err(err).Str("query", body.TextQuery).Msg("place search failed")
		return []Place{}
	}

	results := make([]Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		results = append(results, p.toPlace())
	}
	return results
}

func (p wirePlace) toPlace() Place {
	place := Place{
		ID:          p.ID,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		Rating:      p.Rating,
		RatingCount: p.UserRatingCount,
		PriceLevel:  p.PriceLevel,
	}
	if p.CurrentOpeningHours != nil {
		place.OpeningHours = p.CurrentOpeningHours.WeekdayDescriptions
	}
	return place
}
