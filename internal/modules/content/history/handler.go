package history

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/pkg/pagination"
	"github.com/jdforge/core/internal/pkg/response"
)

const deletedMessage = "That question and answer have been deleted."

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/history", authMW)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	records, p, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c), pagination.FixedSize(c, PageSize))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, records, p)
}

func (h *Handler) get(c *gin.Context) {
	entry, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, entry)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, deletedMessage)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, errRecordNotFound) {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
