package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"fintrack_backend/internal/shared/apperror"
)

// BindError reports a request that failed JSON decoding or binding validation as 400.
func BindError(c *gin.Context, err error) {
	Fail(c, http.StatusBadRequest, string(apperror.KindBadRequest), describeBindError(err))
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", lowerFirst(fe.Field()), fe.Tag()))
		}
		return "invalid request: " + strings.Join(msgs, "; ")
	}
	return "invalid request body"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
