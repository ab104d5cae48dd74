package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/config"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/service"
	"github.com/iliyamo/faculty-fest/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg          config.Config
	Registration *service.Registration
	Registrants  *repository.RegistrantRepo
	Tokens       *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, reg *service.Registration, r *repository.RegistrantRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Registration: reg, Registrants: r, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	SICNumber string `json:"sic_number"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}
type lookupReq struct {
	SICNumber string `json:"sic_number"`
}
type loginReq struct {
	SICNumber string `json:"sic_number"`
	Password  string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	Registrant profile   `json:"registrant"`
	Access     tokenPart `json:"access"`
	Refresh    tokenPart `json:"refresh"`
}

// issue creates and stores a fresh token pair for reg.
func (h *AuthHandler) issue(c echo.Context, reg model.Registrant) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, reg.ID, reg.SICNumber, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, reg.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		Registrant: newProfile(reg),
		Access:     tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:    tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register creates the registrant, whose rank is assigned by the store,
// and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	reg, err := h.Registration.Register(ctx, service.SignupInput{
		SICNumber: req.SICNumber,
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Phone:     req.Phone,
	})
	if err != nil {
		return respondError(c, "register", err)
	}
	resp, err := h.issue(c, reg)
	if err != nil {
		return respondError(c, "issue tokens", err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Lookup returns the contact email registered for a SIC number.
func (h *AuthHandler) Lookup(c echo.Context) error {
	var req lookupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	email, err := h.Registration.LookupEmail(ctx, req.SICNumber)
	if err != nil {
		return respondError(c, "lookup", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"faculty_email": email})
}

// Login verifies SIC number and password and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	reg, err := h.Registration.Authenticate(ctx, req.SICNumber, req.Password)
	if err != nil {
		return respondError(c, "login", err)
	}
	resp, err := h.issue(c, reg)
	if err != nil {
		return respondError(c, "issue tokens", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates by hash, revokes the old token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()
	id, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondError(c, "revoke refresh", err)
	}
	reg, err := h.Registrants.GetByID(ctx, id)
	if err != nil {
		return respondError(c, "load registrant", err)
	}
	resp, err := h.issue(c, reg)
	if err != nil {
		return respondError(c, "issue tokens", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the given refresh token, or every token of the
// bearer when no refresh token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return respondError(c, "logout", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	id, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Tokens.RevokeAllForRegistrant(ctx, id); err != nil {
		return respondError(c, "logout", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated registrant with rank and tier.
func (h *AuthHandler) Me(c echo.Context) error {
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
	return c.JSON(http.StatusOK, newProfile(reg))
}
