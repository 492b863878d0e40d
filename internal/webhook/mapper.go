package webhook

import (
	"strings"

	"github.com/imaginify/imaginify/backend/go-services/internal/models"
)

const (
	PlaceholderPhoto     = "https://example.com/placeholder.jpg"
	DefaultPlanID        = 1
	DefaultCreditBalance = 3
)

// PrimaryEmail returns the address whose id equals the declared primary address id.
func PrimaryEmail(d UserData) (string, bool) {
	if d.PrimaryEmailAddressID == "" {
		return "", false
	}
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID && e.EmailAddress != "" {
			return e.EmailAddress, true
		}
	}
	return "", false
}

// deriveUsername: provided username, else local part of email, else the external id.
func deriveUsername(d UserData, email string) string {
	if d.Username != "" {
		return d.Username
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return d.ID
}

func photoOrPlaceholder(url string) string {
	if url != "" {
		return url
	}
	return PlaceholderPhoto
}

// MapCreate builds the record for a newly created provider user. The record
// carries the bootstrap plan and credits and starts with a pending metadata write-back.
func MapCreate(d UserData) (*models.User, error) {
	email, ok := PrimaryEmail(d)
	if !ok {
		return nil, badRequest("No primary email address provided", nil)
	}
	return &models.User{
		ExternalID:      d.ID,
		Email:           email,
		Username:        deriveUsername(d, email),
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Photo:           photoOrPlaceholder(d.ImageURL),
		PlanID:          DefaultPlanID,
		CreditBalance:   DefaultCreditBalance,
		MetadataPending: true,
	}, nil
}

// MapUpdate returns the mutable fields only. Email is set when the primary
// address resolves and left empty (unchanged) otherwise.
func MapUpdate(d UserData) models.UserUpdate {
	email, _ := PrimaryEmail(d)
	return models.UserUpdate{
		Email:     email,
		Username:  deriveUsername(d, email),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Photo:     photoOrPlaceholder(d.ImageURL),
	}
}
