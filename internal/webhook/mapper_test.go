package webhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCreateDefaults(t *testing.T) {
	u, err := MapCreate(UserData{
		ID:                    "u1",
		EmailAddresses:        []EmailAddress{{ID: "e0", EmailAddress: "other@b.com"}, {ID: "e1", EmailAddress: "a@b.com"}},
		PrimaryEmailAddressID: "e1",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ExternalID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "a", u.Username)
	assert.Equal(t, "", u.FirstName)
	assert.Equal(t, "", u.LastName)
	assert.Equal(t, PlaceholderPhoto, u.Photo)
	assert.Equal(t, DefaultPlanID, u.PlanID)
	assert.Equal(t, DefaultCreditBalance, u.CreditBalance)
	assert.True(t, u.MetadataPending)
}

func TestMapCreateKeepsProvidedFields(t *testing.T) {
	u, err := MapCreate(UserData{
		ID:                    "u1",
		EmailAddresses:        []EmailAddress{{ID: "e1", EmailAddress: "a@b.com"}},
		PrimaryEmailAddressID: "e1",
		Username:              "alice",
		FirstName:             "Alice",
		LastName:              "Liddell",
		ImageURL:              "https://img.example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "Liddell", u.LastName)
	assert.Equal(t, "https://img.example.com/a.png", u.Photo)
}

func TestMapCreateRequiresPrimaryEmail(t *testing.T) {
	cases := map[string]UserData{
		"no primary id": {ID: "u1", EmailAddresses: []EmailAddress{{ID: "e1", EmailAddress: "a@b.com"}}},
		"no match":      {ID: "u1", EmailAddresses: []EmailAddress{{ID: "e1", EmailAddress: "a@b.com"}}, PrimaryEmailAddressID: "e2"},
		"no addresses":  {ID: "u1", PrimaryEmailAddressID: "e1"},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MapCreate(d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadRequest))
			assert.Equal(t, "No primary email address provided", err.Error())
		})
	}
}

func TestDeriveUsernameFallsBackToExternalID(t *testing.T) {
	assert.Equal(t, "u1", deriveUsername(UserData{ID: "u1"}, ""))
	assert.Equal(t, "u1", deriveUsername(UserData{ID: "u1"}, "@b.com"))
}

func TestMapUpdateOmitsEmailWhenUnresolved(t *testing.T) {
	upd := MapUpdate(UserData{ID: "u1", Username: "bob", FirstName: "Bob"})
	assert.Equal(t, "", upd.Email)
	assert.Equal(t, "bob", upd.Username)
	assert.Equal(t, "Bob", upd.FirstName)
	assert.Equal(t, PlaceholderPhoto, upd.Photo)
}
