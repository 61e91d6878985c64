package handlers

import (
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"

	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/domain/repository"
	"github.com/daffahilmyf/users-api/internal/domain/service"
	"github.com/daffahilmyf/users-api/internal/transport/http/response"
	"github.com/daffahilmyf/users-api/internal/transport/http/validation"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	user  service.UserService
	store repository.Store
}

func NewHandler(user service.UserService, store repository.Store) *Handler {
	return &Handler{
		user:  user,
		store: store,
	}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	MobileNo string `json:"mobile_no" binding:"required"`
	Status   *bool  `json:"status"`
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitnil,min=2,max=50,alphaspace"`
	Email    *string `json:"email" binding:"omitnil,email"`
	MobileNo *string `json:"mobile_no" binding:"omitnil,min=1,mobile"`
	Status   *bool   `json:"status"`
}

func (r updateUserRequest) patch() entity.UserPatch {
	return entity.UserPatch{
		Name:     r.Name,
		Email:    r.Email,
		MobileNo: r.MobileNo,
		Status:   r.Status,
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.user.ListActive(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, nethttp.StatusInternalServerError, "Error fetching users", err)
		return
	}
	response.RespondJSON(c, nethttp.StatusOK, response.UserList{
		Message: "Users fetched successfully",
		Users:   users,
	})
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidation(c, nethttp.StatusBadRequest, validation.Errors(err))
		return
	}

	user, err := h.user.Create(c.Request.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		MobileNo: req.MobileNo,
		Status:   req.Status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			response.RespondMessage(c, nethttp.StatusBadRequest, "User with this email already exists")
			return
		}
		response.RespondFailure(c, nethttp.StatusInternalServerError, "Error creating user", err)
		return
	}
	response.RespondJSON(c, nethttp.StatusCreated, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		response.RespondMessage(c, nethttp.StatusNotFound, "User not found")
		return
	}
	// a PUT without a body is an empty patch
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondValidation(c, nethttp.StatusBadRequest, validation.Errors(err))
		return
	}

	user, err := h.user.Update(c.Request.Context(), id, req.patch())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.RespondMessage(c, nethttp.StatusNotFound, "User not found")
		case errors.Is(err, repository.ErrEmailTaken):
			response.RespondMessage(c, nethttp.StatusBadRequest, "User with this email already exists")
		default:
			response.RespondFailure(c, nethttp.StatusInternalServerError, "Error updating user", err)
		}
		return
	}
	response.RespondJSON(c, nethttp.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		response.RespondMessage(c, nethttp.StatusNotFound, "User not found")
		return
	}

	if err := h.user.DeleteByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.RespondMessage(c, nethttp.StatusNotFound, "User not found")
			return
		}
		response.RespondFailure(c, nethttp.StatusInternalServerError, "Error deleting user", err)
		return
	}
	response.RespondMessage(c, nethttp.StatusOK, "User deleted successfully")
}

func (h *Handler) deleteAllUsers(c *gin.Context) {
	count, err := h.user.DeleteAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoUsers) {
			response.RespondMessage(c, nethttp.StatusNotFound, "No users found to delete")
			return
		}
		response.RespondFailure(c, nethttp.StatusInternalServerError, "Error deleting users", err)
		return
	}
	response.RespondMessage(c, nethttp.StatusOK, fmt.Sprintf("%d users deleted successfully", count))
}

func (h *Handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		response.RespondJSON(c, nethttp.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	response.RespondJSON(c, nethttp.StatusOK, gin.H{"status": "ok"})
}

// userID parses the :id path segment. Anything that is not a positive
// integer cannot name a stored user.
func userID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
