package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/miketerry-org/kickstart-mvc/internal/middleware"
)

// PagesHandler serves the static content pages. Each page is one route
// rendering one view with the tenant's site properties.
type PagesHandler struct{}

func NewPagesHandler() *PagesHandler { return &PagesHandler{} }

func (h *PagesHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", middleware.GetLocals(c))
}

func (h *PagesHandler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", middleware.GetLocals(c))
}

func (h *PagesHandler) Contact(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", middleware.GetLocals(c))
}

func (h *PagesHandler) Support(c *gin.Context) {
	c.HTML(http.StatusOK, "support.html", middleware.GetLocals(c))
}

// Set bundles the controller instances the router hands to feature setup
// functions.
type Set struct {
	Auth  *AuthHandler
	Pages *PagesHandler
}
