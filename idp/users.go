package idp

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/arghyam/jalsoochak-session/internal/errors"
)

// User is a stub-IdP account. Identifier is what the login form submits: a
// phone number for field users, an email for programme staff.
type User struct {
	ID          string
	Identifier  string
	Name        string
	Email       string
	PhoneNumber string
	TenantID    string
	Roles       []string

	PasswordHash string
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// UserRepo is the stub's in-memory credential store.
type UserRepo struct {
	lock  sync.RWMutex
	users map[string]*User // keyed by identifier
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*User)}
}

func (r *UserRepo) Upsert(user *User) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.users[user.Identifier] = user
}

func (r *UserRepo) GetByID(userID string) (*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, user := range r.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (r *UserRepo) GetByIdentifier(identifier string) (*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	user, ok := r.users[identifier]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return user, nil
}

// SeedFixtures loads the development accounts: one central admin and one
// state admin. Passwords are hashed at seed time; this is a dev fixture,
// not an account system.
func (r *UserRepo) SeedFixtures() error {
	fixtures := []struct {
		user     User
		password string
	}{
		{
			user: User{
				ID:          "u-central-1",
				Identifier:  "admin@jalsoochak.in",
				Name:        "Central Admin",
				Email:       "admin@jalsoochak.in",
				PhoneNumber: "9000000001",
				Roles:       []string{"central_admin"},
			},
			password: "central-pass",
		},
		{
			user: User{
				ID:          "u-state-1",
				Identifier:  "9876543210",
				Name:        "Asha Patil",
				Email:       "asha@example.in",
				PhoneNumber: "9876543210",
				TenantID:    "t1",
				Roles:       []string{"state_admin"},
			},
			password: "pw",
		},
	}

	for _, f := range fixtures {
		hash, err := HashPassword(f.password)
		if err != nil {
			return err
		}
		user := f.user
		user.PasswordHash = hash
		r.Upsert(&user)
	}
	return nil
}
