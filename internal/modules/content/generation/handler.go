package generation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/pkg/response"
	"github.com/jdforge/core/internal/pkg/validation"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts /generate. limit runs after auth so it can key on the user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, limit gin.HandlerFunc) {
	g := rg.Group("/generate", authMW)
	if limit != nil {
		g.POST("", limit, h.generate)
	} else {
		g.POST("", h.generate)
	}
	g.GET("/last", h.lastForm)
}

func (h *Handler) generate(c *gin.Context) {
	var dto GenerateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Generate(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c), &dto)
	if err != nil {
		if r, ok := validation.AsRejection(err); ok {
			response.Rejected(c, r.Check, r.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) lastForm(c *gin.Context) {
	values, err := h.svc.LastForm(c.Request.Context(), middleware.CurrentSessionID(c))
	if err != nil {
		if errors.Is(err, errNoSession) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	if values == nil {
		response.OK(c, gin.H{})
		return
	}
	response.OK(c, values)
}
