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

type DomainHandler struct {
	domainService       *service.DomainService
	verificationService *service.VerificationService
}

func NewDomainHandler(domainService *service.DomainService, verificationService *service.VerificationService) *DomainHandler {
	return &DomainHandler{
		domainService:       domainService,
		verificationService: verificationService,
	}
}

func (h *DomainHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "domain").Logger()
	return &l
}

// CreateDomainRequest represents the request payload for claiming a domain
type CreateDomainRequest struct {
	OwnerID  uuid.UUID `json:"ownerId" binding:"required"`
	FunnelID uuid.UUID `json:"funnelId" binding:"required"`
	Domain   string    `json:"domain" binding:"required,domainname"`
}

// DomainResponse represents a domain record with its DNS instructions
type DomainResponse struct {
	*domain.DomainRecord
	DNSInstructions domain.DNSInstructions `json:"dnsInstructions"`
}

// CreateDomain godoc
// @Summary Claim a custom domain for a funnel
// @Description Validates the domain name, enforces global uniqueness, replaces any prior record for the owner+funnel pair and returns the DNS records the tenant must publish
// @Tags domains
// @Accept json
// @Produce json
// @Param request body CreateDomainRequest true "domain claim"
// @Success 201 {object} StandardResponse
// @Router /domains [post]
func (h *DomainHandler) CreateDomain(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "CreateDomain").Logger()

	var req CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("Invalid request payload")))
		return
	}

	record, err := h.domainService.CreateDomain(c.Request.Context(), req.OwnerID, req.FunnelID, req.Domain)
	if err != nil {
		logger.Error().Err(err).Str("domain", req.Domain).Msg("failed to create domain")
		respondWithError(c, err)
		return
	}

	logger.Info().
		Str("domain", record.Domain).
		Str("owner_id", req.OwnerID.String()).
		Str("funnel_id", req.FunnelID.String()).
		Msg("domain claimed")

	respondWithSuccessAndStatus(c, http.StatusCreated, DomainResponse{
		DomainRecord:    record,
		DNSInstructions: h.domainService.DNSInstructionsFor(record),
	}, "Domain created, publish the DNS records to verify ownership")
}

// ListDomains godoc
// @Summary List an owner's domain records
// @Tags domains
// @Produce json
// @Param ownerId query string true "owner id"
// @Param funnelId query string false "narrow to funnel"
// @Param id query string false "narrow to record id"
// @Success 200 {object} StandardResponse
// @Router /domains [get]
func (h *DomainHandler) ListDomains(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("ownerId"))
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("ownerId is required and must be a UUID")))
		return
	}

	var funnelID, id *uuid.UUID
	if raw := c.Query("funnelId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
				domain.WithMsg("funnelId must be a UUID")))
			return
		}
		funnelID = &parsed
	}
	if raw := c.Query("id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
				domain.WithMsg("id must be a UUID")))
			return
		}
		id = &parsed
	}

	records, err := h.domainService.ListDomains(c.Request.Context(), ownerID, funnelID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]DomainResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, DomainResponse{
			DomainRecord:    record,
			DNSInstructions: h.domainService.DNSInstructionsFor(record),
		})
	}

	respondWithSuccess(c, responses)
}

// UpdateDomainRequest represents the request payload for domain actions
type UpdateDomainRequest struct {
	DomainID uuid.UUID `json:"domainId" binding:"required"`
	OwnerID  uuid.UUID `json:"ownerId" binding:"required"`
	Action   string    `json:"action" binding:"required,oneof=verify"`
}

// UpdateDomain godoc
// @Summary Run an action on a domain record
// @Description The only supported action is "verify", which runs the DNS ownership checks
// @Tags domains
// @Accept json
// @Produce json
// @Param request body UpdateDomainRequest true "domain action"
// @Success 200 {object} StandardResponse
// @Router /domains [put]
func (h *DomainHandler) UpdateDomain(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "UpdateDomain").Logger()

	var req UpdateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("Invalid request payload, action must be \"verify\"")))
		return
	}

	result, err := h.verificationService.VerifyDomain(c.Request.Context(), req.DomainID, req.OwnerID)
	if err != nil {
		logger.Error().Err(err).Str("domain_id", req.DomainID.String()).Msg("verification errored")
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, gin.H{
		"success":      result.Success,
		"verification": result,
	})
}

// DeleteDomain godoc
// @Summary Delete a domain record
// @Description Removes the record and clears the funnel's domain mirror
// @Tags domains
// @Produce json
// @Param id path string true "domain record id"
// @Param ownerId query string true "owner id"
// @Success 200 {object} StandardResponse
// @Router /domains/{id} [delete]
func (h *DomainHandler) DeleteDomain(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "DeleteDomain").Logger()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("id must be a UUID")))
		return
	}
	ownerID, err := uuid.Parse(c.Query("ownerId"))
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("ownerId is required and must be a UUID")))
		return
	}

	if err := h.domainService.DeleteDomain(c.Request.Context(), id, ownerID); err != nil {
		logger.Error().Err(err).Str("domain_id", id.String()).Msg("failed to delete domain")
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, gin.H{"deleted": true})
}

// VerifyDomainRequest represents the request payload for the dedicated verify action
type VerifyDomainRequest struct {
	DomainID uuid.UUID `json:"domainId" binding:"required"`
	OwnerID  uuid.UUID `json:"ownerId" binding:"required"`
}

// VerifyDomain godoc
// @Summary Verify domain ownership via DNS
// @Description Runs the CNAME and TXT checks and reports which record is missing on failure
// @Tags domains
// @Accept json
// @Produce json
// @Param request body VerifyDomainRequest true "verify request"
// @Success 200 {object} StandardResponse
// @Router /domains/verify [post]
func (h *DomainHandler) VerifyDomain(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "VerifyDomain").Logger()

	var req VerifyDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("Invalid request payload")))
		return
	}

	result, err := h.verificationService.VerifyDomain(c.Request.Context(), req.DomainID, req.OwnerID)
	if err != nil {
		logger.Error().Err(err).Str("domain_id", req.DomainID.String()).Msg("verification errored")
		respondWithError(c, err)
		return
	}

	message := "Domain verified"
	if !result.Success {
		message = verifyFailureMessage(result)
	}

	respondWithSuccess(c, gin.H{
		"success":      result.Success,
		"message":      message,
		"verification": result,
	})
}

func verifyFailureMessage(result *domain.VerificationResult) string {
	switch {
	case !result.CNAMEOk && !result.TXTOk:
		return "CNAME and TXT records not found"
	case !result.CNAMEOk:
		return "CNAME record not found"
	default:
		return "TXT record not found"
	}
}
