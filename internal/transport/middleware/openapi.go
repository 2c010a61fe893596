package middleware

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

// OpenAPIValidator checks requests against the API description before they reach a handler.
// Requests for paths the document does not describe pass through untouched.
type OpenAPIValidator struct {
	router routers.Router
	base   *transport.BaseHandler
}

func NewOpenAPIValidator(spec []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &OpenAPIValidator{
		router: router,
		base:   transport.NewBaseHandler(logger.LoggerWrapper()),
	}, nil
}

func (v *OpenAPIValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			logger.From(r.Context()).Debug("request rejected by openapi validation", "path", r.URL.Path, "error", err)
			appErr := internal.NewValidationError("Request does not match the API description", internal.ErrCodeInvalidRequest).
				WithDetails(map[string]string{"reason": err.Error()})
			v.base.WriteAppError(w, appErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}
