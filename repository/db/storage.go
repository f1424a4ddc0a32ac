package db

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "usergroups/internal/domain/errors"
	"usergroups/internal/domain/models"
)

const opTimeout = 15 * time.Second

const uniqueViolationCode = "23505"

// Storage persists users and groups in PostgreSQL. Every exported operation
// runs inside a single transaction.
type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Println("[ERROR] Failed to configure database pool:", err)
		return nil, &apperrors.DBInitializationError{Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Println("[ERROR] Failed to connect to database:", err)
		return nil, &apperrors.DBInitializationError{Err: err}
	}

	log.Println("[SUCCESS] Database connection established")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user.ID = uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, login, password, age, is_deleted) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Login, user.Password, user.Age, user.IsDeleted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			log.Println("[ERROR] Login already taken:", user.Login)
			return nil, apperrors.ErrUserAlreadyExists
		}
		log.Println("[ERROR] Failed to create user:", err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] User created:", user.ID)
	stored := *user
	return &stored, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx,
		`SELECT id, login, password, age, is_deleted FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperrors.FindUserError{ID: id}
		}
		log.Println("[ERROR] Failed to get user:", err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx,
		`SELECT id, login, password, age, is_deleted FROM users WHERE login = $1 AND is_deleted = false`, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Println("[ERROR] Failed to get user by login:", err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id string, updates models.UserUpdates) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx,
		`SELECT id, login, password, age, is_deleted FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Println("[ERROR] User to update not found:", id)
			return nil, &apperrors.FindUserError{ID: id}
		}
		return nil, err
	}

	if updates.Login != nil {
		user.Login = *updates.Login
	}
	if updates.Password != nil {
		user.Password = *updates.Password
	}
	if updates.Age != nil {
		user.Age = *updates.Age
	}
	if updates.IsDeleted != nil {
		user.IsDeleted = *updates.IsDeleted
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET login = $1, password = $2, age = $3, is_deleted = $4 WHERE id = $5`,
		user.Login, user.Password, user.Age, user.IsDeleted, id)
	if err != nil {
		log.Println("[ERROR] Failed to update user:", err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] User updated:", id)
	return user, nil
}

func (s *Storage) ListUsers(ctx context.Context, loginSubstring string, limit int) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `SELECT id, login, password, age, is_deleted FROM users
		WHERE ($1 = '' OR login LIKE '%' || $1 || '%')
		ORDER BY login ASC`
	args := []any{loginSubstring}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		log.Println("[ERROR] Failed to list users:", err)
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user := models.User{}
		if err := rows.Scan(&user.ID, &user.Login, &user.Password, &user.Age, &user.IsDeleted); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Storage) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	group.ID = uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, permissions) VALUES ($1, $2, $3)`,
		group.ID, group.Name, permissionTags(group.Permissions))
	if err != nil {
		log.Println("[ERROR] Failed to create group:", err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Group created:", group.ID)
	stored := *group
	if stored.Users == nil {
		stored.Users = []models.User{}
	}
	return &stored, nil
}

func (s *Storage) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	group, err := getGroup(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Storage) UpdateGroup(ctx context.Context, id string, updates models.GroupUpdates) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	group := &models.Group{}
	var tags []string
	err = tx.QueryRow(ctx,
		`SELECT id, name, permissions FROM groups WHERE id = $1 FOR UPDATE`, id).
		Scan(&group.ID, &group.Name, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Println("[ERROR] Group to update not found:", id)
			return nil, &apperrors.FindGroupError{ID: id}
		}
		return nil, err
	}
	group.Permissions = models.Permissions(tags)

	if updates.Name != nil {
		group.Name = *updates.Name
	}
	if updates.Permissions != nil {
		group.Permissions = updates.Permissions
	}

	_, err = tx.Exec(ctx,
		`UPDATE groups SET name = $1, permissions = $2 WHERE id = $3`,
		group.Name, permissionTags(group.Permissions), id)
	if err != nil {
		log.Println("[ERROR] Failed to update group:", err)
		return nil, err
	}

	group.Users, err = getGroupMembers(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Group updated:", id)
	return group, nil
}

func (s *Storage) DeleteGroup(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		log.Println("[ERROR] Failed to delete group:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		log.Println("[ERROR] Group to delete not found:", id)
		return &apperrors.FindGroupError{ID: id}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("[SUCCESS] Group deleted:", id)
	return nil
}

func (s *Storage) ListGroups(ctx context.Context) ([]models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT id, name, permissions FROM groups ORDER BY name ASC`)
	if err != nil {
		log.Println("[ERROR] Failed to list groups:", err)
		return nil, err
	}

	groups := []models.Group{}
	for rows.Next() {
		group := models.Group{}
		var tags []string
		if err := rows.Scan(&group.ID, &group.Name, &tags); err != nil {
			rows.Close()
			return nil, err
		}
		group.Permissions = models.Permissions(tags)
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range groups {
		groups[i].Users, err = getGroupMembers(ctx, tx, groups[i].ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return groups, nil
}

// ReplaceGroupUsers rewrites the group's membership with exactly the given
// user set. The group lock, the user checks and the rewrite share one
// transaction, so a concurrent modification cannot leave a partial write.
func (s *Storage) ReplaceGroupUsers(ctx context.Context, groupID string, userIDs []string) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	group := &models.Group{}
	var tags []string
	err = tx.QueryRow(ctx,
		`SELECT id, name, permissions FROM groups WHERE id = $1 FOR UPDATE`, groupID).
		Scan(&group.ID, &group.Name, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Println("[ERROR] Group for membership update not found:", groupID)
			return nil, &apperrors.FindGroupError{ID: groupID}
		}
		return nil, err
	}
	group.Permissions = models.Permissions(tags)

	for _, userID := range userIDs {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			log.Println("[ERROR] Membership candidate not found:", userID)
			return nil, &apperrors.FindUserError{ID: userID}
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_group WHERE group_id = $1`, groupID); err != nil {
		return nil, err
	}
	for _, userID := range userIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_group (user_id, group_id) VALUES ($1, $2)`, userID, groupID); err != nil {
			log.Println("[ERROR] Failed to add user to group:", err)
			return nil, err
		}
	}

	group.Users, err = getGroupMembers(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("[SUCCESS] Group membership replaced:", groupID)
	return group, nil
}

func getGroup(ctx context.Context, tx pgx.Tx, id string) (*models.Group, error) {
	group := &models.Group{}
	var tags []string
	err := tx.QueryRow(ctx,
		`SELECT id, name, permissions FROM groups WHERE id = $1`, id).
		Scan(&group.ID, &group.Name, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperrors.FindGroupError{ID: id}
		}
		log.Println("[ERROR] Failed to get group:", err)
		return nil, err
	}
	group.Permissions = models.Permissions(tags)

	group.Users, err = getGroupMembers(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func getGroupMembers(ctx context.Context, tx pgx.Tx, groupID string) ([]models.User, error) {
	rows, err := tx.Query(ctx,
		`SELECT u.id, u.login, u.password, u.age, u.is_deleted
		FROM users u JOIN user_group ug ON ug.user_id = u.id
		WHERE ug.group_id = $1
		ORDER BY u.login ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user := models.User{}
		if err := rows.Scan(&user.ID, &user.Login, &user.Password, &user.Age, &user.IsDeleted); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Login, &user.Password, &user.Age, &user.IsDeleted); err != nil {
		return nil, err
	}
	return user, nil
}

func permissionTags(perms []models.Permission) []string {
	tags := make([]string, len(perms))
	for i, p := range perms {
		tags[i] = string(p)
	}
	return tags
}
