package api

import (
	"net/http"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/burenotti/wearable_backend/internal/domain/user"
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
)

func (s *Server) MountAuth() {
	loginRequired := LoginRequired(s.authService.Authorizer)

	authRoutes := s.handler.Group("/auth")

	authRoutes.POST("/login", s.Login)
	authRoutes.POST("/sign-up", s.SignUp)
	authRoutes.POST("/refresh", s.Refresh)
	authRoutes.POST("/logout", s.Logout, loginRequired)
	authRoutes.GET("/me", s.Me, loginRequired)
}

type loginReq struct {
	Email    string `form:"username" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
}

type tokensResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (s *Server) Login(c echo.Context) error {
	var b loginReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	agent := useragent.Parse(c.Request().UserAgent())

	ipAddress := c.Request().RemoteAddr
	if c.Request().Header.Get("X-Forwarded-For") != "" {
		ipAddress = c.Request().Header.Get("X-Forwarded-For")
	}

	device := user.Device{
		Browser:   agent.Name,
		OS:        agent.OS,
		IPAddress: ipAddress,
		Model:     agent.Device,
	}

	tokens, err := s.authService.Login(c.Request().Context(), s.getAuthUoW(), device, b.Email, b.Password)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, &tokensResp{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "bearer",
	})
}

type signUpReq struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Role      string  `json:"role" validate:"omitempty,oneof=ADMIN COACH ATHLETE"`
	CoachID   *string `json:"coach_id" validate:"omitempty,uuid"`
}

type userResp struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CoachID   *string   `json:"coach_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResp(u *user.User) userResp {
	return userResp{
		UserID:    u.UserID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		CoachID:   u.CoachID,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) SignUp(c echo.Context) error {
	var b signUpReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	ctx := c.Request().Context()
	u, err := s.authService.CreateUser(ctx, s.getAuthUoW(), user.Profile{
		Email:     b.Email,
		Password:  b.Password,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Role:      access.Role(b.Role),
		CoachID:   b.CoachID,
	})
	if err != nil {
		return s.ServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toUserResp(u))
}

func (s *Server) Logout(c echo.Context) error {
	u := currentUser(c)

	if err := s.authService.Logout(c.Request().Context(), s.getAuthUoW(), u.UserID, u.Authorization); err != nil {
		return s.ServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (s *Server) Refresh(c echo.Context) error {
	var b refreshReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	tokens, err := s.authService.Refresh(c.Request().Context(), s.getAuthUoW(), b.RefreshToken)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, &tokensResp{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "bearer",
	})
}

func (s *Server) Me(c echo.Context) error {
	u, err := s.authService.Me(c.Request().Context(), s.getAuthUoW(), currentUser(c).UserID)
	if err != nil {
		return s.ServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}
