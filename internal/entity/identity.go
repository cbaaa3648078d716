package entity

import "strings"

// AuthKey is a basic-auth credential pair: the uuid is the user, the key
// is the password.
type AuthKey struct {
	UUID string `json:"uuid"`
	Key  string `json:"key"`
}

// Valid reports whether both halves are present.
func (a AuthKey) Valid() bool {
	return strings.TrimSpace(a.UUID) != "" && strings.TrimSpace(a.Key) != ""
}

// Identity is an authenticated principal. It is resolved once by the
// authentication layer and immutable for the rest of the request.
type Identity struct {
	Subject   string  `json:"subject"`
	Namespace string  `json:"namespace"`
	AuthKey   AuthKey `json:"authkey"`
}
