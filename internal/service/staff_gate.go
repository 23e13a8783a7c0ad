package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/flowdesk/internal/repository"
	"github.com/iliyamo/flowdesk/internal/utils"
)

// RoleStaff is the JWT role claim carried by staff tokens.
const RoleStaff = "STAFF"

const staffSubject = "staff"

// SystemLogger records an operational line in the desk's system log.
type SystemLogger interface {
	RecordSystemLog(message string)
}

// StaffGate unlocks the staff actions (approve, remove, system log) with a
// single shared password.  It is a convenience lock for the desk, not a
// security boundary: there are no per-account identities.
type StaffGate struct {
	hash      string
	jwtSecret string
	ttl       time.Duration
	audit     SystemLogger
	log       logrus.FieldLogger

	mu       sync.RWMutex
	loggedIn bool
}

// NewStaffGate hashes password with bcrypt at the given cost.  Tokens
// issued on login are signed with jwtSecret and live for ttl.
func NewStaffGate(password, jwtSecret string, bcryptCost int, ttl time.Duration, audit SystemLogger, log logrus.FieldLogger) (*StaffGate, error) {
	if password == "" {
		return nil, fmt.Errorf("staff password: %w", repository.ErrInvalidInput)
	}
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash staff password: %w", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StaffGate{hash: hash, jwtSecret: jwtSecret, ttl: ttl, audit: audit, log: log}, nil
}

// Login checks password (exact, case-sensitive) and issues a staff token.
func (g *StaffGate) Login(password string) (utils.AccessToken, error) {
	if password == "" {
		return utils.AccessToken{}, fmt.Errorf("password required: %w", repository.ErrInvalidInput)
	}
	if !utils.VerifyPassword(g.hash, password) {
		g.log.Warn("staff login rejected")
		return utils.AccessToken{}, repository.ErrInvalidCredentials
	}
	tok, err := utils.NewAccessToken(g.jwtSecret, staffSubject, RoleStaff, g.ttl)
	if err != nil {
		return utils.AccessToken{}, fmt.Errorf("issue staff token: %w", err)
	}

	g.mu.Lock()
	g.loggedIn = true
	g.mu.Unlock()
	if g.audit != nil {
		g.audit.RecordSystemLog("Staff logged in")
	}
	g.log.Info("staff logged in")
	return tok, nil
}

// LoggedIn reports whether a staff login has succeeded since the last
// Logout.
func (g *StaffGate) LoggedIn() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loggedIn
}

// Logout closes the staff panel.  Tokens issued before it stop opening
// staff routes until the next Login.
func (g *StaffGate) Logout() {
	g.mu.Lock()
	g.loggedIn = false
	g.mu.Unlock()
	if g.audit != nil {
		g.audit.RecordSystemLog("Staff logged out")
	}
	g.log.Info("staff logged out")
}
