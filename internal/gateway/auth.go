package gateway

import (
	"net/http"
	"time"

	"legalaid-admin/internal/gateway/httpdto"
	"legalaid-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "legalaid_session"

// SessionClaims is the signed content of the session cookie.
type SessionClaims struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionService issues and validates the cookie-based admin session. The
// browser client never sees a token; credentials ride on the cookie jar.
type SessionService struct {
	secret []byte
	expiry time.Duration
}

func NewSessionService(secret string, expiry time.Duration) *SessionService {
	return &SessionService{secret: []byte(secret), expiry: expiry}
}

func (s *SessionService) Issue(userID, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *SessionService) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// SetCookie attaches the session cookie to the response.
func (s *SessionService) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.expiry.Seconds()), "/", "", false, true)
}

func (s *SessionService) ClearCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// FromRequest extracts and validates the session from the cookie.
func (s *SessionService) FromRequest(c *gin.Context) (*SessionClaims, error) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, err
	}
	return s.Parse(token)
}

// RequireSession guards REST routes behind a valid session cookie.
func RequireSession(sessions *SessionService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := sessions.FromRequest(c)
		if err != nil {
			if log != nil {
				log.Infof("rejected unauthenticated request to %s", c.Request.URL.Path)
			}
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}
		c.Set("session", claims)
		c.Next()
	}
}

func sessionFromContext(c *gin.Context) (*SessionClaims, bool) {
	value, ok := c.Get("session")
	if !ok {
		return nil, false
	}
	claims, ok := value.(*SessionClaims)
	return claims, ok
}
