package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/miketerry-org/kickstart-mvc/internal/http/handler"
)

// ErrUnknownFeature reports a configured feature name with no registered
// setup function.
type ErrUnknownFeature struct {
	Name string
}

func (e *ErrUnknownFeature) Error() string {
	return fmt.Sprintf("unknown feature %q", e.Name)
}

// SetupFunc registers one feature's routes on the engine.
type SetupFunc func(r *gin.Engine, h *handler.Set)

// features is the compile-time registry mapping a feature name to its typed
// setup function.
var features = map[string]SetupFunc{
	"auth":    setupAuth,
	"home":    setupHome,
	"about":   setupAbout,
	"contact": setupContact,
	"support": setupSupport,
}

// defaultFeatures is the set registered when the configuration lists none.
var defaultFeatures = []string{"auth", "home", "about", "contact", "support"}

func registerFeatures(r *gin.Engine, h *handler.Set, names []string) error {
	if len(names) == 0 {
		names = defaultFeatures
	}
	for _, name := range names {
		setup, ok := features[name]
		if !ok {
			return &ErrUnknownFeature{Name: name}
		}
		setup(r, h)
	}
	return nil
}

func setupAuth(r *gin.Engine, h *handler.Set) {
	r.GET("/sign-in", h.Auth.EnterEmailForm)
	r.POST("/sign-in", h.Auth.SubmitEmail)
	r.POST("/verify-code", h.Auth.SubmitCode)
}

func setupHome(r *gin.Engine, h *handler.Set) {
	r.GET("/", h.Pages.Home)
}

func setupAbout(r *gin.Engine, h *handler.Set) {
	r.GET("/about", h.Pages.About)
}

func setupContact(r *gin.Engine, h *handler.Set) {
	r.GET("/contact", h.Pages.Contact)
}

func setupSupport(r *gin.Engine, h *handler.Set) {
	r.GET("/support", h.Pages.Support)
}
