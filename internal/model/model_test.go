package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBourseIDAcceptsNumbersAndStrings(t *testing.T) {
	var list []Bourse
	require.NoError(t, json.Unmarshal([]byte(`[{"id":7},{"id":"12"},{"id":null}]`), &list))
	require.Len(t, list, 3)
	assert.Equal(t, BourseID(7), list[0].ID)
	assert.Equal(t, BourseID(12), list[1].ID)
	assert.Equal(t, BourseID(0), list[2].ID)
	assert.Equal(t, "12", list[1].ID.String())

	var b Bourse
	assert.Error(t, json.Unmarshal([]byte(`{"id":"abc"}`), &b))
}

func TestComputeStatsDedupsCaseInsensitive(t *testing.T) {
	stats := ComputeStats([]Bourse{
		{Universite: "Sorbonne", Pays: "France", NiveauEtude: "Master"},
		{Universite: " sorbonne ", Pays: "france", NiveauEtude: "Doctorat"},
		{Universite: "TU Berlin", Pays: "Allemagne", NiveauEtude: ""},
	})
	assert.Equal(t, Stats{Bourses: 3, Universites: 2, Pays: 2, Niveaux: 2}, stats)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestGreetingAndDisplayName(t *testing.T) {
	u := UserProfile{Nom: "Kouassi", Prenom: "Awa", NumeroWhatsapp: "0700"}
	assert.Equal(t, "Bonjour, Awa", u.Greeting())
	assert.Equal(t, "Awa Kouassi", u.DisplayName())

	phoneOnly := UserProfile{NumeroWhatsapp: "0700"}
	assert.Equal(t, "Bonjour, 0700", phoneOnly.Greeting())
}

func TestPasswordsMatch(t *testing.T) {
	assert.True(t, RegisterRequest{Password: "a", ConfirmPassword: "a"}.PasswordsMatch())
	assert.False(t, RegisterRequest{Password: "a", ConfirmPassword: "b"}.PasswordsMatch())
}

func TestSignOutKeepsFlashes(t *testing.T) {
	s := Session{User: &UserProfile{IsAdmin: true}, Backend: []StoredCookie{{Name: "session", Value: "x"}}}
	s.Flash.Success("bye")
	require.True(t, s.IsAdmin())

	s.SignOut()
	assert.False(t, s.LoggedIn())
	assert.False(t, s.IsAdmin())
	assert.Empty(t, s.Backend)
	assert.Equal(t, 1, s.Flash.Len())
}
