package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ExistsResponse answers the availability checks.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username               string `json:"username" binding:"required,min=3,max=50"`
	Email                  string `json:"email" binding:"required,email"`
	Password               string `json:"password" binding:"required,min=6"`
	FullName               string `json:"fullName" binding:"required,max=128"`
	MobileNumber           string `json:"mobileNumber" binding:"omitempty,max=20"`
	Pincode                string `json:"pincode" binding:"omitempty,max=10"`
	Role                   string `json:"role"`
	ShopName               string `json:"shopName"`
	BusinessCategory       string `json:"businessCategory"`
	ServiceArea            string `json:"serviceArea"`
	OffersOnDemandProducts bool   `json:"offersOnDemandProducts"`
}

func (r RegisterRequest) toInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Username:         r.Username,
		Email:            r.Email,
		Password:         r.Password,
		FullName:         r.FullName,
		MobileNumber:     r.MobileNumber,
		Pincode:          r.Pincode,
		Role:             r.Role,
		ShopName:         r.ShopName,
		BusinessCategory: r.BusinessCategory,
		ServiceArea:      r.ServiceArea,
		OffersOnDemand:   r.OffersOnDemandProducts,
	}
}

// LoginRequest accepts an email or a username in the email field.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and a summary of the account.
type LoginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresIn int64       `json:"expiresIn"`
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	FullName  string      `json:"fullName"`
}

func newLoginResponse(result *usecase.LoginResult) LoginResponse {
	return LoginResponse{
		Token:     result.Session.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(result.Session.TTL / time.Second),
		ID:        result.User.ID,
		Username:  result.User.Username,
		Email:     result.User.Email,
		Role:      result.User.Role,
		FullName:  result.User.FullName,
	}
}

// UserResponse is the public view of an account. Business fields are only set for business owners.
type UserResponse struct {
	ID                     int64       `json:"id"`
	Username               string      `json:"username"`
	Email                  string      `json:"email"`
	FullName               string      `json:"fullName"`
	Role                   domain.Role `json:"role"`
	MobileNumber           string      `json:"mobileNumber,omitempty"`
	Pincode                string      `json:"pincode,omitempty"`
	ShopName               *string     `json:"shopName,omitempty"`
	BusinessCategory       *string     `json:"businessCategory,omitempty"`
	ServiceArea            *string     `json:"serviceArea,omitempty"`
	OffersOnDemandProducts *bool       `json:"offersOnDemandProducts,omitempty"`
}

func newUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		MobileNumber: user.MobileNumber,
		Pincode:      user.Pincode,
	}
	if user.IsBusiness() {
		shop, category, area, offers := user.ShopName, user.BusinessCategory, user.ServiceArea, user.OffersOnDemandProducts
		resp.ShopName = &shop
		resp.BusinessCategory = &category
		resp.ServiceArea = &area
		resp.OffersOnDemandProducts = &offers
	}
	return resp
}

// PostRequest is the create/update payload for posts.
type PostRequest struct {
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"imageUrl"`
	Type     string `json:"type" binding:"required"`
	Category string `json:"category"`
	Pincode  string `json:"pincode" binding:"required"`
}

func (r PostRequest) toInput() usecase.PostInput {
	return usecase.PostInput{
		Content:  r.Content,
		ImageURL: r.ImageURL,
		Type:     r.Type,
		Category: r.Category,
		Pincode:  r.Pincode,
	}
}

// StatusRequest moves a post to a new lifecycle state.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PostResponse is the API view of a post.
type PostResponse struct {
	ID                 int64               `json:"id"`
	UserID             int64               `json:"userId"`
	Username           string              `json:"username"`
	Content            string              `json:"content"`
	ImageURL           string              `json:"imageUrl,omitempty"`
	Type               domain.PostType     `json:"type"`
	Status             domain.PostStatus   `json:"status"`
	Category           domain.PostCategory `json:"category"`
	Pincode            string              `json:"pincode"`
	LikeCount          int                 `json:"likeCount"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	SolutionProvidedAt *time.Time          `json:"solutionProvidedAt,omitempty"`
}

func newPostResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:                 post.ID,
		UserID:             post.UserID,
		Username:           post.Username,
		Content:            post.Content,
		ImageURL:           post.ImageURL,
		Type:               post.Type,
		Status:             post.Status,
		Category:           post.Category,
		Pincode:            post.Pincode,
		LikeCount:          post.LikeCount,
		CreatedAt:          post.CreatedAt,
		UpdatedAt:          post.UpdatedAt,
		SolutionProvidedAt: post.SolutionProvidedAt,
	}
}

// PostPageResponse is one page of posts.
type PostPageResponse struct {
	Content       []PostResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}

func newPostPageResponse(page *usecase.PostPage) PostPageResponse {
	items := make([]PostResponse, 0, len(page.Posts))
	for _, post := range page.Posts {
		items = append(items, newPostResponse(post))
	}
	totalPages := 0
	if page.Size > 0 {
		totalPages = (page.Total + page.Size - 1) / page.Size
	}
	return PostPageResponse{
		Content:       items,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.Total,
		TotalPages:    totalPages,
	}
}

// CommentRequest is the create payload for comments.
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CommentResponse is the API view of a comment.
type CommentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCommentResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Username:  comment.Username,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// DashboardResponse summarises board totals for administrators.
type DashboardResponse struct {
	TotalUsers          int `json:"totalUsers"`
	TotalCustomers      int `json:"totalCustomers"`
	TotalBusinessOwners int `json:"totalBusinessOwners"`
	TotalPosts          int `json:"totalPosts"`
	TotalOpenPosts      int `json:"totalOpenPosts"`
	TotalResolvedPosts  int `json:"totalResolvedPosts"`
	TotalComments       int `json:"totalComments"`
}

// ProfileRequest is the update payload for an account's own profile.
type ProfileRequest struct {
	FullName               string `json:"fullName" binding:"required,max=128"`
	MobileNumber           string `json:"mobileNumber" binding:"omitempty,max=20"`
	Pincode                string `json:"pincode" binding:"omitempty,max=10"`
	ShopName               string `json:"shopName"`
	BusinessCategory       string `json:"businessCategory"`
	ServiceArea            string `json:"serviceArea"`
	OffersOnDemandProducts bool   `json:"offersOnDemandProducts"`
}

func (r ProfileRequest) toInput() usecase.ProfileInput {
	return usecase.ProfileInput{
		FullName:         r.FullName,
		MobileNumber:     r.MobileNumber,
		Pincode:          r.Pincode,
		ShopName:         r.ShopName,
		BusinessCategory: r.BusinessCategory,
		ServiceArea:      r.ServiceArea,
		OffersOnDemand:   r.OffersOnDemandProducts,
	}
}

// RoleRequest assigns a role to an account.
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserPageResponse is one page of accounts.
type UserPageResponse struct {
	Content       []UserResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}

func newUserPageResponse(page *usecase.UserPage) UserPageResponse {
	totalPages := 0
	if page.Size > 0 {
		totalPages = (page.Total + page.Size - 1) / page.Size
	}
	return UserPageResponse{
		Content:       newUserResponses(page.Users),
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.Total,
		TotalPages:    totalPages,
	}
}

func newUserResponses(users []domain.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}
	return resp
}

// LikeResponse reports the caller's like state for a post.
type LikeResponse struct {
	PostID    int64 `json:"postId"`
	Liked     bool  `json:"liked"`
	LikeCount int   `json:"likeCount"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports the state of each dependency check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
