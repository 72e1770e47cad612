// Package store implements flat-file persistence for user accounts,
// in the same semicolon-separated format as the inventory files.
package store

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stocklot/stocklot-backend/internal/auth/domain"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

const (
	usersFile = "users.csv"

	separator  = ';'
	dateLayout = "02-01-2006"
)

// CSV is a flat-file user store.
type CSV struct {
	path   string
	logger *logger.Logger

	mu    sync.Mutex
	users map[string]*domain.User // keyed by lowercase username
}

// NewCSV opens (or initializes) a user store in dir.
func NewCSV(dir string, log *logger.Logger) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Persistence(err)
	}

	s := &CSV{
		path:   filepath.Join(dir, usersFile),
		logger: log.WithComponent("store.users"),
		users:  make(map[string]*domain.User),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByUsername looks a user up case-insensitively.
func (s *CSV) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[normalize(username)]
	if !ok {
		return nil, errors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

// Create adds a new user and rewrites the file.
func (s *CSV) Create(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(u.Username)
	if _, ok := s.users[key]; ok {
		return errors.Conflict("a user with this username already exists")
	}

	cp := *u
	s.users[key] = &cp
	if err := s.save(); err != nil {
		delete(s.users, key)
		return err
	}
	return nil
}

// Count returns the number of stored users.
func (s *CSV) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *CSV) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Persistence(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = separator
	r.FieldsPerRecord = -1

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Persistence(err)
		}
		u, err := parseUser(row)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed user row")
			continue
		}
		s.users[normalize(u.Username)] = u
	}
	return nil
}

func (s *CSV) save() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), usersFile+".tmp-*")
	if err != nil {
		return errors.Persistence(err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = separator
	for _, u := range s.users {
		if err := w.Write(formatUser(u)); err != nil {
			tmp.Close()
			return errors.Persistence(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errors.Persistence(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Persistence(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Persistence(err)
	}
	return nil
}

// Columns: id;username;name;password_hash;role;created_at
// The created_at column is optional.
func parseUser(row []string) (*domain.User, error) {
	if len(row) < 5 {
		return nil, errors.BadRequest("user row has too few columns")
	}

	role := domain.Role(row[4])
	if !role.Valid() {
		return nil, errors.BadRequest("unknown role")
	}

	u := &domain.User{
		ID:           row[0],
		Username:     row[1],
		Name:         row[2],
		PasswordHash: row[3],
		Role:         role,
	}
	if len(row) > 5 && row[5] != "" {
		created, err := time.Parse(dateLayout, row[5])
		if err != nil {
			return nil, err
		}
		u.CreatedAt = created
	}
	return u, nil
}

func formatUser(u *domain.User) []string {
	return []string{
		u.ID,
		u.Username,
		u.Name,
		u.PasswordHash,
		string(u.Role),
		u.CreatedAt.Format(dateLayout),
	}
}
