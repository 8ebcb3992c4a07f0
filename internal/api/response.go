package api

import (
	"net/http" // HTTP status codes

	"ppob_wallet/internal/domain" // Tagged ledger errors

	"github.com/gin-gonic/gin" // Gin web framework
)

// Response is the envelope every endpoint answers with
type Response struct {
	Status  int         `json:"status"`  // 0 on success, error code otherwise
	Message string      `json:"message"` // Human readable message
	Data    interface{} `json:"data"`    // Payload, null on error
}

// respondOK writes a 200 envelope
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: 0, Message: message, Data: data})
}

// respondError maps a ledger error to its status and code. The wrapped cause is never sent.
func respondError(c *gin.Context, err error) {
	tagged := domain.AsError(err)
	c.JSON(tagged.HTTPStatus, Response{Status: tagged.Code, Message: tagged.Message, Data: nil})
}
