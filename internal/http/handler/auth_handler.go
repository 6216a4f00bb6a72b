// Package handler contains the gin controllers for the sign-in flow and the
// static content pages.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/middleware"
	"github.com/miketerry-org/kickstart-mvc/internal/repository"
	"github.com/miketerry-org/kickstart-mvc/internal/service"
	"github.com/miketerry-org/kickstart-mvc/internal/tenant"
)

// AuthHandler serves the two-step email/code sign-in exchange. The flow
// itself is tenant-scoped: each request builds its controller against the
// resolved tenant's data connection and mailer.
type AuthHandler struct {
	policy   service.VerificationPolicy
	fallback *zap.Logger
}

func NewAuthHandler(policy service.VerificationPolicy, fallback *zap.Logger) *AuthHandler {
	return &AuthHandler{policy: policy, fallback: fallback}
}

// EnterEmailForm renders the email entry form.
func (h *AuthHandler) EnterEmailForm(c *gin.Context) {
	c.HTML(http.StatusOK, "enter-email.html", middleware.GetLocals(c))
}

// SubmitEmail issues a verification code for the submitted address and
// renders the code entry form, or re-renders the email form with field
// errors.
func (h *AuthHandler) SubmitEmail(c *gin.Context) {
	flow, ok := h.flowFor(c)
	if !ok {
		return
	}

	result := flow.SubmitEmail(c.Request.Context(), c.PostForm("email"), middleware.GetLocals(c))
	h.render(c, result)
}

// SubmitCode verifies the submitted code and renders the view matched to
// the flow outcome.
func (h *AuthHandler) SubmitCode(c *gin.Context) {
	flow, ok := h.flowFor(c)
	if !ok {
		return
	}

	result := flow.SubmitCode(c.Request.Context(), c.PostForm("email"), c.PostForm("code"), middleware.GetLocals(c))
	h.render(c, result)
}

// flowFor builds the flow controller bound to the request's tenant
// services. Resolution middleware runs first, so a missing bundle means the
// route was wired outside the tenant pipeline.
func (h *AuthHandler) flowFor(c *gin.Context) (*service.AuthFlow, bool) {
	svc, ok := middleware.GetServices(c)
	if !ok {
		h.fallback.Error("auth route served without tenant services", zap.String("path", c.Request.URL.Path))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		c.Abort()
		return nil, false
	}
	return flowFromServices(svc, h.policy), true
}

func flowFromServices(svc *tenant.Services, policy service.VerificationPolicy) *service.AuthFlow {
	repo := repository.NewPostgresAuthRepo(svc.DB)
	codes := service.NewVerificationCodeService(repo, svc.Log, policy)
	return service.NewAuthFlow(codes, svc.Mailer, svc.Log)
}

func (h *AuthHandler) render(c *gin.Context, result service.FlowResult) {
	data := result.Data
	if data == nil {
		data = map[string]any{}
	}
	data["errors"] = result.Errors

	switch result.Outcome {
	case service.NeedsEmailForm:
		c.HTML(http.StatusOK, "enter-email.html", data)
	case service.NeedsCodeForm:
		c.HTML(http.StatusOK, "enter-code.html", data)
	case service.Locked:
		c.HTML(http.StatusOK, "locked.html", data)
	case service.Verified:
		c.HTML(http.StatusOK, "dashboard.html", data)
	default:
		c.HTML(http.StatusInternalServerError, "error.html", data)
	}
}
