package handler

import (
	"context"
	"net/http"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/ascension-ai/backend/src/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type FunnelHandler struct {
	funnelService  *service.FunnelService
	tenantResolver *service.TenantResolver
}

func NewFunnelHandler(funnelService *service.FunnelService, tenantResolver *service.TenantResolver) *FunnelHandler {
	return &FunnelHandler{
		funnelService:  funnelService,
		tenantResolver: tenantResolver,
	}
}

func (h *FunnelHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "funnel").Logger()
	return &l
}

// CreateFunnelRequest represents the request payload for funnel creation
type CreateFunnelRequest struct {
	OwnerID uuid.UUID           `json:"ownerId" binding:"required"`
	Name    string              `json:"name" binding:"required"`
	Status  domain.FunnelStatus `json:"status" binding:"omitempty,oneof=draft published"`
}

// CreateFunnel godoc
// @Summary Register a funnel
// @Tags funnels
// @Accept json
// @Produce json
// @Param request body CreateFunnelRequest true "funnel"
// @Success 201 {object} StandardResponse
// @Router /funnels [post]
func (h *FunnelHandler) CreateFunnel(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "CreateFunnel").Logger()

	var req CreateFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("Invalid request payload")))
		return
	}

	funnel, err := h.funnelService.CreateFunnel(c.Request.Context(), req.OwnerID, req.Name, req.Status)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create funnel")
		respondWithError(c, err)
		return
	}

	respondWithSuccessAndStatus(c, http.StatusCreated, funnel)
}

// GetFunnel godoc
// @Summary Get a funnel by id
// @Tags funnels
// @Produce json
// @Param id path string true "funnel id"
// @Success 200 {object} StandardResponse
// @Router /funnels/{id} [get]
func (h *FunnelHandler) GetFunnel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("id must be a UUID")))
		return
	}

	funnel, err := h.funnelService.GetFunnel(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, funnel)
}

// LookupFunnel godoc
// @Summary Resolve the funnel serving a hostname
// @Description Tries verified custom domain, then published default domain, then a fuzzy name match
// @Tags funnels
// @Produce json
// @Param domain query string true "hostname to resolve"
// @Success 200 {object} StandardResponse
// @Router /funnels/lookup [get]
func (h *FunnelHandler) LookupFunnel(c *gin.Context) {
	hostname := c.Query("domain")
	funnel, source, err := h.tenantResolver.Resolve(c.Request.Context(), hostname)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, gin.H{
		"funnel": funnel,
		"source": source,
	})
}

// ServeFunnel is the rewrite target of the edge router: it resolves the
// hostname carried by the middleware and returns the funnel payload. Content
// rendering happens at the hosting edge, not here.
func (h *FunnelHandler) ServeFunnel(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "ServeFunnel").Logger()

	host := c.Query("host")
	path := c.DefaultQuery("path", "/")

	funnel, source, err := h.tenantResolver.Resolve(c.Request.Context(), host)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Debug().
		Str("host", host).
		Str("path", path).
		Str("funnel_id", funnel.ID.String()).
		Str("source", source).
		Msg("serving tenant funnel")

	respondWithSuccess(c, gin.H{
		"funnel": funnel,
		"source": source,
		"host":   host,
		"path":   path,
	})
}
