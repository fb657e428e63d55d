package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tkserver/internal/api/apierr"
	"github.com/mcoot/tkserver/internal/middleware"
)

// Recovery turns handler panics into JSON internal errors
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
