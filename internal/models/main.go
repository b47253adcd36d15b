// Package models defines the core data structures for accounts and cat breeds.
package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// MinSecretLength is the shortest accepted account secret, in characters.
	MinSecretLength = 6
	// MaxSecretBytes is bcrypt's input limit.
	MaxSecretBytes = 72
)

// Account represents a persisted user account.
type Account struct {
	// ID is assigned by the store on creation.
	ID string
	// FirstName and LastName are the names the account was registered with.
	FirstName string
	LastName  string
	// Username is unique across all accounts.
	Username string
	// PasswordHash is the opaque secret hash. It never leaves the service layer.
	PasswordHash string
	// Email is optional; empty means unset.
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public returns the outward-facing projection of the account.
func (a *Account) Public() AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountResponse is the account as returned to clients.
type AccountResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount is the registration payload.
type NewAccount struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
}

// Normalize trims surrounding whitespace from names and email.
func (n *NewAccount) Normalize() {
	n.FirstName = strings.TrimSpace(n.FirstName)
	n.LastName = strings.TrimSpace(n.LastName)
	n.Email = strings.TrimSpace(n.Email)
}

// Validate checks field constraints. Call Normalize first.
func (n NewAccount) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.FirstName, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&n.LastName, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&n.Password,
			validation.Required,
			validation.RuneLength(MinSecretLength, 0),
			// Length counts bytes, which is what bcrypt limits.
			validation.Length(0, MaxSecretBytes),
		),
		validation.Field(&n.Email, is.Email),
	)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        AccountResponse `json:"user"`
}

// Breed is a cat breed as exposed by this API.
type Breed struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Temperament      string `json:"temperament,omitempty"`
	Origin           string `json:"origin,omitempty"`
	LifeSpan         string `json:"life_span,omitempty"`
	WikipediaURL     string `json:"wikipedia_url,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
	Adaptability     *int   `json:"adaptability,omitempty"`
	AffectionLevel   *int   `json:"affection_level,omitempty"`
	ChildFriendly    *int   `json:"child_friendly,omitempty"`
	DogFriendly      *int   `json:"dog_friendly,omitempty"`
	EnergyLevel      *int   `json:"energy_level,omitempty"`
	Grooming         *int   `json:"grooming,omitempty"`
	HealthIssues     *int   `json:"health_issues,omitempty"`
	Intelligence     *int   `json:"intelligence,omitempty"`
	SheddingLevel    *int   `json:"shedding_level,omitempty"`
	SocialNeeds      *int   `json:"social_needs,omitempty"`
	StrangerFriendly *int   `json:"stranger_friendly,omitempty"`
	Vocalisation     *int   `json:"vocalisation,omitempty"`
}
