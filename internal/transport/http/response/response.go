package response

import (
	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/daffahilmyf/users-api/internal/transport/http/validation"
	"github.com/gin-gonic/gin"
)

type Message struct {
	Message string `json:"message"`
}

type Failure struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type ValidationFailure struct {
	Errors []validation.FieldError `json:"errors"`
}

type UserList struct {
	Message string        `json:"message"`
	Users   []entity.User `json:"users"`
}

func RespondJSON(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func RespondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Message{Message: message})
}

// RespondFailure reports an unexpected error along with its text.
func RespondFailure(c *gin.Context, status int, message string, err error) {
	body := Failure{Message: message}
	if err != nil {
		body.Error = err.Error()
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func RespondValidation(c *gin.Context, status int, errs []validation.FieldError) {
	c.JSON(status, ValidationFailure{Errors: errs})
}
