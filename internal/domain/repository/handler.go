package repository

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openshr/xds-repository/internal/domain/queue"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// Handler exposes the repository transactions over HTTP. Both transactions
// always answer 200 with a registry-style body; the XDS outcome rides in the
// response status URN, not the HTTP status.
type Handler struct {
	svc   *Service
	queue queue.Store
}

func NewHandler(svc *Service, q queue.Store) *Handler {
	return &Handler{svc: svc, queue: q}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/document-set", h.ProvideAndRegister)
	api.POST("/document-set/retrieve", h.Retrieve)
	api.GET("/queue/:id", h.GetQueueItem)
}

func (h *Handler) ProvideAndRegister(c echo.Context) error {
	var req ebxml.ProvideAndRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp := h.svc.ProvideAndRegister(c.Request().Context(), &req)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Retrieve(c echo.Context) error {
	var req ebxml.RetrieveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp := h.svc.Retrieve(c.Request().Context(), &req)
	return c.JSON(http.StatusOK, resp)
}

// GetQueueItem reports the processing state of one queued discrete job.
func (h *Handler) GetQueueItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "queue item id must be numeric")
	}
	item, err := h.queue.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, queue.ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "queue item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}
