// Package http implements HTTP request handlers for the FinCast API.
// It provides a thin layer between HTTP transport and business logic, following
// the clean architecture principle of keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//	5. Consistent patterns - standardized request/response handling
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Core/Model Runner
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    // 1. Decode and validate request
//	    var req v1.SomethingRequest
//	    if err := render.DecodeJSON(r.Body, &req); err != nil {
//	        h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(...))
//	        return
//	    }
//	    if err := h.validator.ValidateStruct(&req); err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//
//	    // 2. Call service layer
//	    result, err := h.service.DoSomething(r.Context(), &req)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//
//	    // 3. Format and send response
//	    render.JSON(w, r, result)
//	}
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details specification:
//
//	{
//	    "type": "urn:fincast:error:unsupported-frequency",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "unsupported frequency \"weekly\"",
//	    "instance": "/api/regressors"
//	}
//
// Typed errors from the projection, anomaly, and attribution cores map to
// stable error codes; everything unrecognized collapses to a 500 problem
// document without leaking internals.
//
// # Validation Split
//
// Struct tags cover shape errors only (missing fields, malformed dates).
// Domain rules that carry their own error codes, such as supported
// frequencies or a positive top_n, are deliberately left to the cores so the
// client sees UNSUPPORTED_FREQUENCY rather than a generic VALIDATION_ERROR.
//
// # Middleware Integration
//
// Handlers work with these middleware:
//
//	- RequestID: Adds unique request ID for tracing
//	- StructuredLogger: Structured logging with slog
//	- OTelMiddleware: Traces and metrics per route
//	- Recoverer: Converts panics to 500 problem documents
//	- ContentTypeValidator/RequestValidator: Rejects bad payloads early
//
// # Testing
//
// Handlers are tested using httptest:
//
//	- Real services over fake upstreams (httptest model runner)
//	- Test various HTTP scenarios
//	- Verify problem+json error responses
//	- Check middleware integration
package http
