package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lanebattle/internal/combat"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrBadJoinCode  = errors.New("auth: bad join code")
)

// TeamClaims bind a bearer to one side of one match.
type TeamClaims struct {
	Match string `json:"match"`
	Team  string `json:"team"`
	jwt.RegisteredClaims
}

// Issuer signs and checks per-team tokens with HS256. When a join code is
// set, tokens are only issued to callers that present it.
type Issuer struct {
	key      []byte
	issuer   string
	ttl      time.Duration
	codeHash []byte
	now      func() time.Time
}

// NewIssuer uses secret as the signing key; an empty secret gets a random
// 32-byte key that lives as long as the process.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Issuer{key: key, issuer: "lanebattle", ttl: ttl, now: time.Now}
}

// SetJoinCode requires code on every later Issue call. An empty code
// disables the check.
func (a *Issuer) SetJoinCode(code string) error {
	if code == "" {
		a.codeHash = nil
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.codeHash = h
	return nil
}

func (a *Issuer) checkCode(code string) error {
	if a.codeHash == nil {
		return nil
	}
	if bcrypt.CompareHashAndPassword(a.codeHash, []byte(code)) != nil {
		return ErrBadJoinCode
	}
	return nil
}

func (a *Issuer) Issue(matchID string, team combat.Team, code string) (string, error) {
	if team != combat.TeamP1 && team != combat.TeamP2 {
		return "", fmt.Errorf("auth: cannot issue for team %s", team)
	}
	if err := a.checkCode(code); err != nil {
		return "", err
	}
	now := a.now()
	claims := TeamClaims{
		Match: matchID,
		Team:  team.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   team.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Verify parses tok and returns the team it was issued for. matchID, when
// not empty, must equal the token's match.
func (a *Issuer) Verify(tok, matchID string) (combat.Team, error) {
	if tok == "" {
		return combat.TeamNone, fmt.Errorf("%w: missing", ErrInvalidToken)
	}
	var claims TeamClaims
	_, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return a.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return combat.TeamNone, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if matchID != "" && claims.Match != matchID {
		return combat.TeamNone, fmt.Errorf("%w: issued for another match", ErrInvalidToken)
	}
	team, ok := combat.ParseTeam(claims.Team)
	if !ok {
		return combat.TeamNone, fmt.Errorf("%w: team %q", ErrInvalidToken, claims.Team)
	}
	return team, nil
}
