package service

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"enquiry-backend/internal/model"
	"enquiry-backend/internal/repository"
	"enquiry-backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL bounds the validity of issued credentials
const TokenTTL = 24 * time.Hour

// DTOs for request validation
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a subject; the password hash never
// leaves the service layer
type UserResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// AuthResponse pairs an issued token with the public view of its subject
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserService defines the identity and access operations
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	secret    []byte
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditRepo repository.AuditRepository, secret []byte) UserService {
	return &userService{repo: repo, auditRepo: auditRepo, secret: secret}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:   user.ID.String(),
		Name: user.Name,
		Role: user.Role,
	}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperr.Validation("invalid role: must be executive or procurement")
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.Validation("invalid email format")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Validation("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperr.Storage(err)
	}

	details, _ := json.Marshal(map[string]string{"email": user.Email, "role": user.Role})
	uid := user.ID
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     &uid,
		Action:     model.ActionRegisterUser,
		EntityID:   user.ID.String(),
		EntityName: user.Name,
		Details:    string(details),
	})

	token, err := s.issueToken(user)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return &AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	// Unknown email and wrong password fail identically so accounts cannot
	// be enumerated
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Auth("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Auth("invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return &AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("user")
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}
