package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ryokun6/ryos-sub004/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func apiError(err error) (int, APIError) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		return status, APIError{Code: ae.Code, Message: ae.Message}
	}
	return status, APIError{Code: utils.CodeInternal, Message: http.StatusText(status)}
}

func writeError(c *gin.Context, err error) {
	status, body := apiError(err)
	_ = c.Error(err)
	c.JSON(status, body)
}

func setCacheHeader(c *gin.Context, cached bool) {
	if cached {
		c.Header("X-Cache", "HIT")
		return
	}
	c.Header("X-Cache", "MISS")
}
