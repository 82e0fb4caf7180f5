package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doableapp/doable-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register",
		Description:   "Creates an account and signs the user in",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Login",
		Description: "Verifies credentials and starts a session",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Rotates the refresh token and issues a new access token",
		Tags:        []string{"Auth"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the session holding the given refresh token",
		Tags:        []string{"Auth"},
	}, s.handleLogout)
}

// === DTOs ===

// UserResponse contains public user data.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"Email address"`
	DisplayName string    `json:"display_name,omitempty" doc:"Display name"`
	CreatedAt   time.Time `json:"created_at" doc:"Account creation time"`
}

// AuthResponse contains tokens and user data after a successful auth call.
type AuthResponse struct {
	User         UserResponse `json:"user" doc:"The authenticated user"`
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Opaque refresh token"`
	ExpiresAt    time.Time    `json:"expires_at" doc:"Access token expiry"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body struct {
		Email       string `json:"email" doc:"Email address"`
		Password    string `json:"password" doc:"Password (at least 8 characters)"`
		DisplayName string `json:"display_name,omitempty" doc:"Display name"`
	}
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" doc:"Email address"`
		Password string `json:"password" doc:"Password"`
	}
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" doc:"Opaque refresh token"`
	}
}

// LogoutOutput wraps the logout response for Huma.
type LogoutOutput struct {
	Body struct {
		Success bool `json:"success" doc:"Whether the logout succeeded"`
	}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	if !s.authRateLimiter.Allow(strings.ToLower(input.Body.Email)) {
		return nil, huma.Error429TooManyRequests("Too many attempts, try again later")
	}

	result, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}
	return authOutput(result), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if !s.authRateLimiter.Allow(strings.ToLower(input.Body.Email)) {
		return nil, huma.Error429TooManyRequests("Too many attempts, try again later")
	}

	result, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return authOutput(result), nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	result, err := s.services.Auth.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		return nil, err
	}
	return authOutput(result), nil
}

func (s *Server) handleLogout(ctx context.Context, input *RefreshInput) (*LogoutOutput, error) {
	if err := s.services.Auth.Logout(ctx, input.Body.RefreshToken); err != nil {
		return nil, err
	}

	out := &LogoutOutput{}
	out.Body.Success = true
	return out, nil
}

func authOutput(result *service.AuthResult) *AuthOutput {
	return &AuthOutput{
		Body: AuthResponse{
			User: UserResponse{
				ID:          result.User.ID,
				Email:       result.User.Email,
				DisplayName: result.User.DisplayName,
				CreatedAt:   result.User.CreatedAt,
			},
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			ExpiresAt:    result.ExpiresAt,
		},
	}
}
