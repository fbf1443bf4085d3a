// Package profile manages the shadow users table: a locally-inserted row
// duplicating name fields alongside the remote auth identity, plus a bcrypt
// hash of the password. The hash is stored, never used to authenticate.
package profile

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell/inkwell/internal/supabase"
)

// Table is the remote table holding shadow profiles.
const Table = "users"

// ErrNotFound is returned when no shadow row exists for an email.
var ErrNotFound = errors.New("profile: user details not found")

// Profile is a shadow user row. Password holds the bcrypt hash.
type Profile struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Store reads and writes shadow profiles through a remote client.
type Store struct {
	client *supabase.Client
}

// NewStore wraps a remote client.
func NewStore(client *supabase.Client) *Store {
	return &Store{client: client}
}

// Insert creates the shadow row for a freshly signed-up identity.
// The plaintext password is hashed here and never stored.
func (s *Store) Insert(ctx context.Context, email, firstName, lastName, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("profile: hash password: %w", err)
	}
	record := map[string]string{
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"password":   hash,
	}
	return s.client.From(Table).Insert(ctx, record, nil)
}

// GetByEmail looks up the shadow row for an email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	err := s.client.From(Table).Eq("email", email).Single(ctx, &p)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// HashPassword computes a salted bcrypt hash. Cost 10 matches the remote
// auth service's own hashing parameters.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(b), err
}

// CheckPassword reports whether password verifies against hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
