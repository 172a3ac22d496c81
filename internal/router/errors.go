package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/catalog"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
)

// statusFor maps a domain error to the HTTP status the client sees.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrQuantityNegative),
		errors.Is(err, cart.ErrVariantRequired),
		errors.Is(err, cart.ErrLineRequired):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrNotInitialized), errors.Is(err, cart.ErrClosed):
		return http.StatusConflict
	case catalog.IsNotFound(err), errors.Is(err, gateway.ErrCartNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if _, ok := gateway.AsUserErrors(err); ok {
		return http.StatusUnprocessableEntity
	}
	if gateway.IsTransport(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	var details []global.ValidationError
	if ue, ok := gateway.AsUserErrors(err); ok {
		details = make([]global.ValidationError, len(ue))
		for i, e := range ue {
			details[i] = global.ValidationError{Field: strings.Join(e.Field, "."), Message: e.Message, Code: e.Code}
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusConflict {
		message = err.Error()
	}
	c.JSON(status, global.ErrorResponse(message, details))
}

// bindingErrors turns gin binding failures into field errors.
func bindingErrors(err error) []global.ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []global.ValidationError{{Field: "body", Message: err.Error(), Code: "invalid_json"}}
	}
	out := make([]global.ValidationError, len(verrs))
	for i, fe := range verrs {
		out[i] = global.ValidationError{
			Field:   fe.Field(),
			Message: fe.Error(),
			Code:    fe.Tag(),
		}
	}
	return out
}
