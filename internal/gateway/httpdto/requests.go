package httpdto

import "legalaid-admin/internal/domain"

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateQueryRequest struct {
	Status  *domain.QueryStatus `json:"status,omitempty"`
	Subject *string             `json:"subject,omitempty"`
	Answer  *string             `json:"answer,omitempty"`
}

type CreateUserRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role"`
	Password string `json:"password" binding:"required"`
}
