// Package breeds is a read-through client for TheCatAPI breed catalog. It
// remaps upstream breed records into models.Breed.
package breeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/models"
)

const (
	// DefaultBaseURL is TheCatAPI v1 endpoint.
	DefaultBaseURL = "https://api.thecatapi.com/v1"
	imageCDN       = "https://cdn2.thecatapi.com/images/%s.jpg"

	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// SearchParams filters a breed search.
type SearchParams struct {
	Query       string
	Limit       int
	AttachBreed int
}

// Client calls the upstream catalog.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client for baseURL authenticating with apiKey.
// A nil httpClient gets a client with a 10 second timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

// All returns every breed.
func (c *Client) All(ctx context.Context) ([]models.Breed, error) {
	var raw []upstreamBreed
	if _, err := c.get(ctx, "/breeds", nil, &raw); err != nil {
		return nil, err
	}
	return convertAll(raw), nil
}

// ByID returns a single breed. Upstream 404 and 400 responses are reported as
// common.ErrNotFound.
func (c *Client) ByID(ctx context.Context, id string) (*models.Breed, error) {
	var raw upstreamBreed
	status, err := c.get(ctx, "/breeds/"+url.PathEscape(id), nil, &raw)
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b := raw.convert()
	return &b, nil
}

// Search returns breeds matching p.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]models.Breed, error) {
	q := url.Values{}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.AttachBreed != 0 {
		q.Set("attach_breed", strconv.Itoa(p.AttachBreed))
	}

	var raw []upstreamBreed
	if _, err := c.get(ctx, "/breeds/search", q, &raw); err != nil {
		return nil, err
	}
	return convertAll(raw), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

type upstreamBreed struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Temperament      string `json:"temperament"`
	Origin           string `json:"origin"`
	LifeSpan         string `json:"life_span"`
	WikipediaURL     string `json:"wikipedia_url"`
	ReferenceImageID string `json:"reference_image_id"`
	Image            *struct {
		URL string `json:"url"`
	} `json:"image"`
	Adaptability     *int `json:"adaptability"`
	AffectionLevel   *int `json:"affection_level"`
	ChildFriendly    *int `json:"child_friendly"`
	DogFriendly      *int `json:"dog_friendly"`
	EnergyLevel      *int `json:"energy_level"`
	Grooming         *int `json:"grooming"`
	HealthIssues     *int `json:"health_issues"`
	Intelligence     *int `json:"intelligence"`
	SheddingLevel    *int `json:"shedding_level"`
	SocialNeeds      *int `json:"social_needs"`
	StrangerFriendly *int `json:"stranger_friendly"`
	Vocalisation     *int `json:"vocalisation"`
}

func (u upstreamBreed) convert() models.Breed {
	var image string
	switch {
	case u.Image != nil && u.Image.URL != "":
		image = u.Image.URL
	case u.ReferenceImageID != "":
		image = fmt.Sprintf(imageCDN, u.ReferenceImageID)
	}

	return models.Breed{
		ID:               u.ID,
		Name:             u.Name,
		Description:      u.Description,
		Temperament:      u.Temperament,
		Origin:           u.Origin,
		LifeSpan:         u.LifeSpan,
		WikipediaURL:     u.WikipediaURL,
		ImageURL:         image,
		Adaptability:     u.Adaptability,
		AffectionLevel:   u.AffectionLevel,
		ChildFriendly:    u.ChildFriendly,
		DogFriendly:      u.DogFriendly,
		EnergyLevel:      u.EnergyLevel,
		Grooming:         u.Grooming,
		HealthIssues:     u.HealthIssues,
		Intelligence:     u.Intelligence,
		SheddingLevel:    u.SheddingLevel,
		SocialNeeds:      u.SocialNeeds,
		StrangerFriendly: u.StrangerFriendly,
		Vocalisation:     u.Vocalisation,
	}
}

func convertAll(raw []upstreamBreed) []models.Breed {
	out := make([]models.Breed, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.convert())
	}
	return out
}
