package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/csemotors/internal/server/flash"
)

// Router builds the complete HTTP surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(flash.Middleware(h.flashStore, h.logger))
	r.Use(h.Session)

	r.NotFound(h.notFound)

	r.Get("/", h.home)
	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/account", func(r chi.Router) {
		r.Get("/login", h.loginView)
		r.With(h.revalidate(h.schemas.login, h.loginFailed)).Post("/login", h.login)
		r.Get("/register", h.registerView)
		r.With(h.revalidate(h.schemas.register, h.registerFailed)).Post("/register", h.register)
		r.Get("/logout", h.logout)
		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuthenticated)
			r.Get("/", h.management)
			r.With(h.RequireAccountOwner).Get("/update/{account_id}", h.updateView)
			r.With(h.RequireAccountOwner, h.revalidate(h.schemas.updateInfo, h.updateFailed)).
				Post("/update", h.updateAccount)
			r.With(h.RequireAccountOwner, h.revalidate(h.schemas.updatePassword, h.updateFailed)).
				Post("/update-password", h.updatePassword)
		})
	})

	r.Route("/inv", func(r chi.Router) {
		r.Get("/type/{classification_id}", h.classificationView)
		r.Get("/detail/{inv_id}", h.vehicleView)
		r.Get("/error500", h.crash)

		r.Group(func(r chi.Router) {
			r.Use(h.RequirePrivileged)
			r.Get("/", h.inventoryManagement)
			r.Get("/add-classification", h.addClassificationView)
			r.With(h.revalidate(h.schemas.classification, h.addClassificationFailed)).
				Post("/add-classification", h.addClassification)
			r.Get("/add-inventory", h.addVehicleView)
			r.With(h.revalidate(h.schemas.vehicle, h.addVehicleFailed)).
				Post("/add-inventory", h.addVehicle)
			r.Post("/image-upload-url", h.imageUploadURL)
		})
	})

	return r
}
