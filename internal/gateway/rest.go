package gateway

import (
	"errors"
	"net/http"

	"legalaid-admin/internal/domain"
	"legalaid-admin/internal/gateway/httpdto"
	legalaid_errors "legalaid-admin/pkg/errors"
	"legalaid-admin/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RESTHandler serves the platform API the admin client consumes.
type RESTHandler struct {
	state    *State
	sessions *SessionService
	log      *logger.Logger
}

func NewRESTHandler(state *State, sessions *SessionService, log *logger.Logger) *RESTHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RESTHandler{state: state, sessions: sessions, log: log}
}

func (h *RESTHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	user, err := h.state.Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("invalid credentials", "UNAUTHORIZED"))
		return
	}

	token, err := h.sessions.Issue(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("session error", "INTERNAL_ERROR"))
		return
	}
	h.sessions.SetCookie(c, token)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(user))
}

func (h *RESTHandler) Me(c *gin.Context) {
	claims, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	user, err := h.state.User(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(user))
}

func (h *RESTHandler) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"loggedOut": true}))
}

func (h *RESTHandler) ListQueries(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.state.Queries()))
}

func (h *RESTHandler) CreateQuery(c *gin.Context) {
	var q domain.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.state.CreateQuery(q)))
}

func (h *RESTHandler) GetQuery(c *gin.Context) {
	q, err := h.state.Query(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("query not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(q))
}

// UpdateQuery is the status write path. Transition validation lives in the
// state layer; an invalid (backwards) transition maps to 409.
func (h *RESTHandler) UpdateQuery(c *gin.Context) {
	var req httpdto.UpdateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if req.Status == nil && req.Subject == nil && req.Answer == nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("nothing to update", "INVALID_REQUEST"))
		return
	}

	q, err := h.state.UpdateQuery(c.Param("id"), req.Status, req.Subject, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, legalaid_errors.ErrNotFound):
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("query not found", "NOT_FOUND"))
		case errors.Is(err, legalaid_errors.ErrInvalidTransition):
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "INVALID_TRANSITION"))
		default:
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
		}
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(q))
}

func (h *RESTHandler) DeleteQuery(c *gin.Context) {
	if err := h.state.DeleteQuery(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("query not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"success": true}))
}

func (h *RESTHandler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.state.Users()))
}

func (h *RESTHandler) CreateUser(c *gin.Context) {
	var req httpdto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	role := req.Role
	if role == "" {
		role = "Client"
	}
	user, err := h.state.CreateUser(domain.User{FullName: req.FullName, Email: req.Email, Role: role}, req.Password)
	if err != nil {
		if errors.Is(err, legalaid_errors.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "ALREADY_EXISTS"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(user))
}

func (h *RESTHandler) UpdateUser(c *gin.Context) {
	var req domain.User
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	user, err := h.state.UpdateUser(c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("user not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(user))
}

func (h *RESTHandler) DeleteUser(c *gin.Context) {
	if err := h.state.DeleteUser(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("user not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"success": true}))
}

func (h *RESTHandler) Analytics(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.state.Analytics()))
}

// Content handlers back the section editors with schemaless items.

func (h *RESTHandler) ContentList(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.state.ContentList(section)))
	}
}

func (h *RESTHandler) ContentCreate(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item map[string]any
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.state.ContentCreate(section, item)))
	}
}

func (h *RESTHandler) ContentUpdate(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item map[string]any
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
			return
		}
		updated, err := h.state.ContentUpdate(section, c.Param("id"), item)
		if err != nil {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(updated))
	}
}

func (h *RESTHandler) ContentDelete(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.state.ContentDelete(section, c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"success": true}))
	}
}
