package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/saadjs/nutrilog/internal/domain"
)

type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// PasswordPolicy is applied to passwords on registration.
var PasswordPolicy = domain.DefaultPasswordPolicy()

func CreateUser(db *sql.DB, name, customerID string) (*domain.User, error) {
	u, err := domain.NewUser(domain.UserProps{
		ID:         domain.GenerateID().Value(),
		Name:       name,
		CustomerID: customerID,
	})
	if err != nil {
		return nil, err
	}
	if err := insertUser(db, u); err != nil {
		return nil, err
	}
	log.WithField("user_id", u.ID()).Debug("created user")
	return u, nil
}

func RegisterUser(db *sql.DB, in RegisterUserInput) (*domain.User, error) {
	email, err := domain.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	password, err := domain.NewPassword(in.Password, PasswordPolicy)
	if err != nil {
		return nil, err
	}
	taken, err := exists(db, `SELECT 1 FROM users WHERE email = ?`, strings.ToLower(email.Value()))
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, domain.AlreadyExistsf("a user with email %q already exists", email.Value())
	}
	digest, err := bcrypt.GenerateFromPassword(bcryptInput(password.Value()), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Infra("hash password", err)
	}
	hash, err := domain.NewHashedPassword(string(digest))
	if err != nil {
		return nil, err
	}
	u, err := domain.NewUser(domain.UserProps{ID: domain.GenerateID().Value(), Name: in.Name})
	if err != nil {
		return nil, err
	}
	if err := u.SetCredentials(email, hash); err != nil {
		return nil, err
	}
	if err := insertUser(db, u); err != nil {
		return nil, err
	}
	log.WithField("user_id", u.ID()).Debug("registered user")
	return u, nil
}

// Login returns the user whose credentials match. Unknown emails and wrong
// passwords produce the same AUTH error.
func Login(db *sql.DB, email, password string) (*domain.User, error) {
	addr, err := domain.NewEmail(email)
	if err != nil {
		return nil, err
	}
	var id string
	err = db.QueryRow(`SELECT id FROM users WHERE email = ?`, strings.ToLower(addr.Value())).Scan(&id)
	if isNoRows(err) {
		return nil, domain.Authf("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	u, err := loadUser(db, id)
	if err != nil {
		return nil, err
	}
	if !u.HasCredentials() {
		return nil, domain.Authf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash().Value()), bcryptInput(strings.TrimSpace(password))); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.Authf("invalid email or password")
		}
		return nil, domain.Infra("verify password", err)
	}
	return u, nil
}

// bcryptInput digests the password first: bcrypt reads at most 72 bytes and
// the password policy allows 128 characters.
func bcryptInput(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func GetUser(db *sql.DB, id string) (*domain.User, error) {
	return loadUser(db, strings.TrimSpace(id))
}

func ListUsers(db *sql.DB) ([]*domain.User, error) {
	rows, err := db.Query(`SELECT id FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		u, err := loadUser(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func UpdateUser(db *sql.DB, id string, patch domain.UserPatch) (*domain.User, error) {
	u, err := loadUser(db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := u.Update(patch); err != nil {
		return nil, err
	}
	_, err = db.Exec(`UPDATE users SET name = ?, customer_id = ?, updated_at = ? WHERE id = ?`,
		u.Name(), u.CustomerID(), formatTime(u.UpdatedAt()), u.ID())
	if err != nil {
		return nil, fmt.Errorf("update user %q: %w", u.ID(), err)
	}
	return u, nil
}

// DeleteUser removes the user and everything they own.
func DeleteUser(db *sql.DB, id string) error {
	id = strings.TrimSpace(id)
	if _, err := loadUser(db, id); err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	stmts := []string{
		`DELETE FROM ingredient_lines WHERE parent_type = 'meal' AND parent_id IN (SELECT id FROM meals WHERE user_id = ?)`,
		`DELETE FROM ingredient_lines WHERE parent_type = 'recipe' AND parent_id IN (SELECT id FROM recipes WHERE user_id = ?)`,
		`DELETE FROM day_meals WHERE user_id = ?`,
		`DELETE FROM day_fake_meals WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete user %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}

func insertUser(q querier, u *domain.User) error {
	var email, hash any
	if u.Email() != "" {
		email = strings.ToLower(u.Email())
	}
	if u.HasCredentials() {
		hash = u.PasswordHash().Value()
	}
	_, err := q.Exec(`
INSERT INTO users(id, name, customer_id, email, password_hash, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, u.ID(), u.Name(), u.CustomerID(), email, hash, formatTime(u.CreatedAt()), formatTime(u.UpdatedAt()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.AlreadyExistsf("user %q already exists", u.ID())
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func loadUser(q querier, id string) (*domain.User, error) {
	var (
		name, customerID       string
		email, hash            sql.NullString
		createdRaw, updatedRaw string
	)
	err := q.QueryRow(`SELECT name, customer_id, email, password_hash, created_at, updated_at FROM users WHERE id = ?`, id).
		Scan(&name, &customerID, &email, &hash, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	return domain.NewUser(domain.UserProps{
		ID:           id,
		Name:         name,
		CustomerID:   customerID,
		Email:        email.String,
		PasswordHash: hash.String,
		CreatedAt:    created,
		UpdatedAt:    updated,
	})
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return out, nil
}
