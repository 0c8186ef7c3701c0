package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope codes. Session failures travel as codes over HTTP 200 so that
// clients classify them from the body alone.
const (
	CodeOK                 = "0"
	CodeSessionExpired     = "00006"
	CodeInvalidCredentials = "10001"
	CodeValidation         = "10002"
	CodeSetupCompleted     = "10003"
	CodeInvalidToken       = "10009"
	CodeInternal           = "50000"
)

// Envelope is the body of every API response
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: CodeOK, Message: "ok", Data: data})
}

func respondCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{Code: code, Message: message})
}
