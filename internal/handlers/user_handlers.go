package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/users"
	"github.com/gin-gonic/gin"
)

// --- Registration & Login ---

type RegisterInput struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /register.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 2. --- Create the User ---
	user, err := h.Users.Create(c.Request.Context(), users.RegisterInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Issue a Token ---
	h.respondWithToken(c, http.StatusCreated, "User registered successfully", user)
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, "Login successful", user)
}

func (h *Handlers) respondWithToken(c *gin.Context, status int, msg string, user *models.User) {
	token, err := h.Tokens.GenerateToken(user)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, status, msg, gin.H{"access_token": token, "token_type": "Bearer", "user": user})
}

// --- Profile ---

// Profile is the handler for GET /profile.
func (h *Handlers) Profile(c *gin.Context) {
	user, err := h.Users.ByID(c.Request.Context(), principal(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"user": user})
}

type ChangePasswordInput struct {
	OldPassword             string `json:"old_password" binding:"required"`
	NewPassword             string `json:"new_password" binding:"required,min=8"`
	NewPasswordConfirmation string `json:"new_password_confirmation" binding:"required,eqfield=NewPassword"`
}

// ChangePassword is the handler for POST /change-password.
func (h *Handlers) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	err := h.Users.ChangePassword(c.Request.Context(), principal(c), input.OldPassword, input.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password changed successfully.", nil)
}

// --- Admin ---

// PromoteUser is the handler for PUT /users/:id/promote.
func (h *Handlers) PromoteUser(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		notFound(c, "User")
		return
	}
	user, err := h.Users.Promote(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "User promoted to admin successfully.", gin.H{"user": user})
}

// CountUsers is the handler for GET /users/count.
func (h *Handlers) CountUsers(c *gin.Context) {
	n, err := h.Users.Count(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"total_users": n})
}
