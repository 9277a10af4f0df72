package user

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/models"
	"github.com/jdforge/core/internal/pkg/response"
	sessionpkg "github.com/jdforge/core/internal/pkg/session"
	"github.com/jdforge/core/internal/pkg/validation"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.GET("/security-questions", h.securityQuestions)
	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.POST("/logout", authMW, h.logout)

	u := rg.Group("/user", authMW)
	u.GET("/profile", h.me)
	u.PATCH("/profile", h.updateProfile)
	u.PATCH("/password", h.changePassword)
	u.GET("/sessions", h.listSessions)
	u.DELETE("/sessions/:id", h.deleteSession)
}

func (h *Handler) securityQuestions(c *gin.Context) {
	response.OK(c, models.SecurityQuestions())
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"ok": 1, "message": msgRegistered, "id": u.ID})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, u, err := h.svc.Login(c.Request.Context(), dto.Username, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			response.UnauthorizedMsg(c, msgInvalidCredentials)
			return
		}
		response.InternalError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.svc.SessionTTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	response.OK(c, loginResponse{
		OK:      1,
		Message: fmt.Sprintf("Welcome back, %s!", u.Username),
		Token:   token,
		User:    toResponse(u),
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	response.Message(c, msgLoggedOut)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, gin.H{"ok": 1, "message": msgProfileUpdated, "user": toResponse(u)})
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c), &dto)
	if err != nil {
		fail(c, err)
		return
	}
	response.Message(c, msgPasswordChanged)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	current := middleware.CurrentSessionID(c)
	data := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, sessionResponse{
			ID:      s.ID,
			UA:      s.UA,
			IP:      s.IP,
			Date:    s.UpdatedAt,
			Current: s.ID == current,
		})
	}
	response.OK(c, data)
}

func (h *Handler) deleteSession(c *gin.Context) {
	err := h.svc.RevokeSession(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, sessionpkg.ErrNotFound) {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Message(c, msgSessionRevoked)
}

func fail(c *gin.Context, err error) {
	if r, ok := validation.AsRejection(err); ok {
		response.Rejected(c, r.Check, r.Message)
		return
	}
	if errors.Is(err, errUserNotFound) {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
