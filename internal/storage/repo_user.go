package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *User) (int64, error) {
	if user == nil {
		return 0, fmt.Errorf("create user: user is nil")
	}
	if user.Username == "" {
		return 0, fmt.Errorf("create user: username is required")
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = nowMillis()
	}

	result, err := r.store.Exec(ctx,
		`INSERT INTO users (username, password, createdAt) VALUES (?, ?, ?)`,
		user.Username, user.Password, user.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user: last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row, err := r.store.queryRow(ctx,
		`SELECT id, username, password, createdAt FROM users WHERE username = ?`, username)
	if err != nil {
		return nil, err
	}

	var user User
	err = row.Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.store.Query(ctx,
		`SELECT id, username, password, createdAt FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: iterate: %w", err)
	}
	return out, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, password string) (bool, error) {
	result, err := r.store.Exec(ctx,
		`UPDATE users SET password = ? WHERE id = ?`, password, id)
	if err != nil {
		return false, fmt.Errorf("update user password: %w", err)
	}
	count, err := rowsAffected(result, "update user password")
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
