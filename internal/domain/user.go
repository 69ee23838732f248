package domain

import "time"

type UserProps struct {
	ID           string
	Name         string
	CustomerID   string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User owns recipes, meals, days and workouts. Email and password hash are
// optional so that local profiles can exist without credentials.
type User struct {
	id           ID
	name         Text
	customerID   string
	email        Email
	passwordHash HashedPassword
	timestamps
}

func NewUser(p UserProps) (*User, error) {
	id, err := NewID(p.ID)
	if err != nil {
		return nil, err
	}
	name, err := NewText(p.Name, TextOptions{NotEmpty: true})
	if err != nil {
		return nil, err
	}
	u := &User{id: id, name: name}
	if u.customerID, err = optionalCustomerID(p.CustomerID); err != nil {
		return nil, err
	}
	if p.Email != "" {
		if u.email, err = NewEmail(p.Email); err != nil {
			return nil, err
		}
	}
	if p.PasswordHash != "" {
		if u.passwordHash, err = NewHashedPassword(p.PasswordHash); err != nil {
			return nil, err
		}
	}
	if u.timestamps, err = newTimestamps(p.CreatedAt, p.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

type UserPatch struct {
	Name       *string
	CustomerID *string
}

func (u *User) Update(patch UserPatch) error {
	var name Text
	if patch.Name != nil {
		n, err := NewText(*patch.Name, TextOptions{NotEmpty: true})
		if err != nil {
			return err
		}
		name = n
	}
	var customerID string
	if patch.CustomerID != nil {
		c, err := optionalCustomerID(*patch.CustomerID)
		if err != nil {
			return err
		}
		customerID = c
	}
	if patch.Name != nil {
		u.name = name
	}
	if patch.CustomerID != nil {
		u.customerID = customerID
	}
	u.touch()
	return nil
}

// SetCredentials attaches a login email and password digest.
func (u *User) SetCredentials(email Email, hash HashedPassword) error {
	if email.IsZero() {
		return Validationf("User: email is required")
	}
	if hash.IsZero() {
		return Validationf("User: password hash is required")
	}
	u.email = email
	u.passwordHash = hash
	u.touch()
	return nil
}

func (u *User) ID() string                   { return u.id.Value() }
func (u *User) Name() string                 { return u.name.Value() }
func (u *User) CustomerID() string           { return u.customerID }
func (u *User) Email() string                { return u.email.Value() }
func (u *User) PasswordHash() HashedPassword { return u.passwordHash }
func (u *User) HasCredentials() bool         { return !u.passwordHash.IsZero() }

func optionalCustomerID(raw string) (string, error) {
	t, err := NewText(raw, TextOptions{MaxLength: 255})
	if err != nil {
		return "", err
	}
	return t.Value(), nil
}
