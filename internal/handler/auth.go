package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/utils"
)

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID primitive.ObjectID, role, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (primitive.ObjectID, string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID primitive.ObjectID) error
}

// AuthHandler bundles dependencies for the auth endpoints of every portal.
// Accounts is keyed by role; admin and company share the users collection.
type AuthHandler struct {
	Cfg      config.Config
	Accounts map[string]Accounts
	Tokens   TokenStore
	Log      *zap.Logger
	Now      func() time.Time
}

func NewAuthHandler(cfg config.Config, users UserStore, students StudentAccountStore, general GeneralAccountStore, t TokenStore, log *zap.Logger) *AuthHandler {
	company := CompanyAccounts{Users: users}
	return &AuthHandler{
		Cfg: cfg,
		Accounts: map[string]Accounts{
			model.RoleAdmin:   company,
			model.RoleCompany: company,
			model.RoleStudent: StudentAccounts{Students: students},
			model.RoleGeneral: GeneralAccounts{Users: general},
		},
		Tokens: t,
		Log:    log,
	}
}

// ----- DTOs -----

type signupReq struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Name        string `json:"name"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role" validate:"omitempty,oneof=admin company"`
	CompanyName string `json:"companyName"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin company"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// portalRole is the role an account created on portal receives.
func portalRole(portal, requested string) string {
	switch portal {
	case PortalStudent:
		return model.RoleStudent
	case PortalGeneral:
		return model.RoleGeneral
	}
	if requested == model.RoleAdmin {
		return model.RoleAdmin
	}
	return model.RoleCompany
}

// Signup returns the signup handler of portal: create the account and
// return tokens immediately.
func (h *AuthHandler) Signup(portal string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req signupReq
		if msg, ok := bind(c, &req); !ok {
			return badRequest(c, msg)
		}
		role := portalRole(portal, req.Role)
		s := Signup{
			Email:       strings.ToLower(strings.TrimSpace(req.Email)),
			Role:        role,
			Name:        strings.TrimSpace(req.Name),
			FirstName:   strings.TrimSpace(req.FirstName),
			LastName:    strings.TrimSpace(req.LastName),
			CompanyName: strings.TrimSpace(req.CompanyName),
		}
		switch role {
		case model.RoleAdmin:
			if !h.Cfg.AdminSignup {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin signup is disabled"})
			}
			fallthrough
		case model.RoleCompany:
			if s.Name == "" {
				return badRequest(c, "Missing required fields")
			}
			if role == model.RoleCompany && s.CompanyName == "" {
				return badRequest(c, "Company name is required for company accounts")
			}
		default:
			if s.FirstName == "" || s.LastName == "" {
				return badRequest(c, "Missing required fields")
			}
		}

		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, h.Log, err)
		}
		s.PasswordHash = hash

		ctx, cancel := reqCtx(c)
		defer cancel()

		id, err := h.Accounts[role].Signup(ctx, s)
		if err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "User already exists"})
			}
			return fail(c, h.Log, err)
		}
		resp, err := h.issue(ctx, id)
		if err != nil {
			return fail(c, h.Log, err)
		}
		return c.JSON(http.StatusCreated, resp)
	}
}

// Login returns the login handler of portal: verify credentials and return
// a new token pair.  Suspended accounts are refused with 403.
func (h *AuthHandler) Login(portal string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if msg, ok := bind(c, &req); !ok {
			return badRequest(c, msg)
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		id, err := h.Accounts[portalRole(portal, "")].ByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
			}
			return fail(c, h.Log, err)
		}
		if req.Role != "" && req.Role != id.Role {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		if !utils.VerifyPassword(id.PasswordHash, req.Password) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		if id.AccountStatus == model.AccountSuspended {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Account is suspended"})
		}
		if err := h.Accounts[id.Role].RecordLogin(ctx, id.ID, h.now()); err != nil {
			h.Log.Warn("record login failed", zap.String("user_id", id.ID.Hex()), zap.Error(err))
		}

		resp, err := h.issue(ctx, id)
		if err != nil {
			return fail(c, h.Log, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair for the account it belongs to.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return fail(c, h.Log, err)
	}
	accounts, ok := h.Accounts[role]
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	id, err := accounts.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return fail(c, h.Log, err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, h.Log, err)
	}

	resp, err := h.issue(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when no body token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refresh := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refresh != "" {
		hash := utils.HashRefreshRaw(refresh)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return fail(c, h.Log, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	raw, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if !ok {
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(raw))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	uid, err := repository.ParseID(claims.Subject)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me echoes the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": middleware.UserID(c),
		"role":    middleware.Role(c),
		"email":   middleware.Email(c),
	})
}

func (h *AuthHandler) issue(ctx context.Context, id model.Identity) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{
		Subject: id.ID.Hex(),
		Role:    id.Role,
		Email:   id.Email,
	}, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, id.ID, id.Role, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: id.ID.Hex(), Email: id.Email, Role: id.Role, Name: id.DisplayName},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
