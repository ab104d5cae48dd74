package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/faculty-fest/internal/eligibility"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/service"
)

// VoucherHandler serves a registrant's own voucher.
type VoucherHandler struct {
	Registrants *repository.RegistrantRepo
	Claims      *repository.ClaimRepo
	Guard       *service.Guard
}

func NewVoucherHandler(r *repository.RegistrantRepo, c *repository.ClaimRepo, g *service.Guard) *VoucherHandler {
	return &VoucherHandler{Registrants: r, Claims: c, Guard: g}
}

type voucherStatus struct {
	Rank     *int                `json:"rank"`
	Eligible bool                `json:"eligible"`
	Tier     *eligibility.Tier   `json:"tier"`
	Claim    *model.VoucherClaim `json:"claim"`
}

// Mine reports the tier the caller's rank earns and any existing claim.
func (h *VoucherHandler) Mine(c echo.Context) error {
	id, err := getRegistrantID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	reg, err := h.Registrants.GetByID(ctx, id)
	if err != nil {
		return respondError(c, "load registrant", err)
	}
	out := voucherStatus{Rank: reg.Rank}
	if t, ok := eligibility.Resolve(reg.Rank); ok {
		out.Eligible = true
		out.Tier = &t
	}
	claim, err := h.Claims.GetByRegistrant(ctx, id)
	switch {
	case err == nil:
		out.Claim = &claim
	case !errors.Is(err, repository.ErrNotFound):
		return respondError(c, "load claim", err)
	}
	return c.JSON(http.StatusOK, out)
}

type claimReq struct {
	TierID string `json:"tier_id"`
}

// Claim records the caller's voucher.  409 when already claimed.
func (h *VoucherHandler) Claim(c echo.Context) error {
	id, err := getRegistrantID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req claimReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	reg, err := h.Registrants.GetByID(ctx, id)
	if err != nil {
		return respondError(c, "load registrant", err)
	}
	claim, err := h.Guard.Claim(ctx, reg, req.TierID)
	if err != nil {
		return respondError(c, "claim voucher", err)
	}
	return c.JSON(http.StatusCreated, claim)
}

// QR renders the caller's redemption code as a PNG.
func (h *VoucherHandler) QR(c echo.Context) error {
	id, err := getRegistrantID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	claim, err := h.Claims.GetByRegistrant(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no voucher claimed"})
		}
		return respondError(c, "load claim", err)
	}
	png, err := qrcode.Encode(claim.Code, qrcode.Medium, 256)
	if err != nil {
		return respondError(c, "render qr", err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}
