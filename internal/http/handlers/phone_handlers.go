package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/retaildash/internal/phone"
)

// FormatPhone backs the phone input: it echoes the display form of value
// together with its validation state
func FormatPhone(c *gin.Context) {
	value := c.Query("value")
	msg := phone.ErrorMessage(value)

	data := gin.H{
		"display": phone.FormatDisplay(value),
		"digits":  phone.DigitsOnly(value),
		"valid":   msg == "",
		"error":   msg,
	}
	if msg == "" {
		data["wire"] = phone.ToWireFormat(value)
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
