package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"qbodega/backend/internal/domain"
)

const issuer = "qbodega"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Account is one row of the static credential table.
type Account struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
}

// DefaultAccounts is the bodega staff list the demo ships with.
func DefaultAccounts() []Account {
	return []Account{
		{Username: "admin", Password: "123456", DisplayName: "Administrador", Role: domain.RoleAdmin},
		{Username: "carlos.rodriguez", Password: "empleado123", DisplayName: "Carlos Rodríguez", Role: domain.RoleEmployee},
		{Username: "maria.gonzalez", Password: "empleado456", DisplayName: "María González", Role: domain.RoleEmployee},
		{Username: "jose.martinez", Password: "empleado789", DisplayName: "José Martínez", Role: domain.RoleEmployee},
		{Username: "ana.lopez", Password: "empleado321", DisplayName: "Ana López", Role: domain.RoleEmployee},
		{Username: "luis.torres", Password: "empleado654", DisplayName: "Luis Torres", Role: domain.RoleEmployee},
	}
}

type credential struct {
	passwordHash string
	displayName  string
	role         string
}

type Manager struct {
	mu       sync.RWMutex
	secret   []byte
	tokenTTL time.Duration
	users    map[string]credential
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// NewManager hashes every account password up front so plain passwords are not
// kept in memory.
func NewManager(secret string, tokenTTL time.Duration, accounts []Account) (*Manager, error) {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	users := make(map[string]credential, len(accounts))
	for _, account := range accounts {
		username := strings.ToLower(strings.TrimSpace(account.Username))
		if username == "" {
			continue
		}
		hash, err := hashPassword(account.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", username, err)
		}
		role := account.Role
		if role == "" {
			role = domain.RoleEmployee
		}
		users[username] = credential{
			passwordHash: hash,
			displayName:  account.DisplayName,
			role:         role,
		}
	}

	return &Manager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
	}, nil
}

func (m *Manager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	m.mu.RLock()
	cred, ok := m.users[username]
	m.mu.RUnlock()
	if !ok || !verifyPassword(cred.passwordHash, req.Password) {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}

	expiresAt := time.Now().UTC().Add(m.tokenTTL)
	token, err := m.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Username:    username,
		DisplayName: m.DisplayName(username),
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (m *Manager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &sessionClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return domain.Actor{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, ErrInvalidToken
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

// DisplayName returns the configured name for username, or the username with
// dots turned into spaces and title-cased.
func (m *Manager) DisplayName(username string) string {
	m.mu.RLock()
	cred, ok := m.users[username]
	m.mu.RUnlock()
	if ok && cred.displayName != "" {
		return cred.displayName
	}
	return cases.Title(language.Spanish).String(strings.ReplaceAll(username, ".", " "))
}

func (m *Manager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
