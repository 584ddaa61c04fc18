package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

const (
	msgClassificationAdded  = "The %s classification was successfully added."
	msgClassificationExists = "That classification already exists."
	msgClassificationFailed = "Sorry, adding the classification failed."
	msgVehicleAdded         = "The %d %s %s was successfully added."
	msgVehicleFailed        = "Sorry, adding the vehicle failed."
	msgUploadRejected       = "Please choose a JPEG, PNG, WebP or GIF image."
	msgUploadFailed         = "Sorry, the upload could not be prepared."

	inventoryPath = "/inv/"
)

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, View{Name: "index", Title: "Home"})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// crash fails on purpose so operators can check the error page end to end.
func (h *Handler) crash(http.ResponseWriter, *http.Request) {
	panic(errors.New("intentional server error"))
}

func (h *Handler) classificationView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "classification_id"))
	if !ok {
		h.notFound(w, r)
		return
	}

	class, vehicles, err := h.inventory.VehiclesByClassification(r.Context(), id)
	if err != nil {
		h.catalogFailed(w, r, "classification", err)
		return
	}

	h.render(w, r, http.StatusOK, View{
		Name:  "inventory/classification",
		Title: class.Name + " Vehicles",
		Data:  vehicles,
	})
}

func (h *Handler) vehicleView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "inv_id"))
	if !ok {
		h.notFound(w, r)
		return
	}

	v, err := h.inventory.Vehicle(r.Context(), id)
	if err != nil {
		h.catalogFailed(w, r, "vehicle", err)
		return
	}

	h.render(w, r, http.StatusOK, View{
		Name:  "inventory/detail",
		Title: fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model),
		Data:  v,
	})
}

func (h *Handler) catalogFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		h.notFound(w, r)
		return
	}
	h.report(r, op, err, describeFailure(err, msgServerError))
	h.renderServerError(w, r)
}

func (h *Handler) inventoryManagement(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, View{Name: "inventory/management", Title: "Vehicle Management"})
}

func (h *Handler) addClassificationView(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, View{Name: "inventory/add-classification", Title: "Add Classification"})
}

func (h *Handler) addClassificationFailed(w http.ResponseWriter, r *http.Request, status int, res *validation.Result) {
	h.render(w, r, status, View{
		Name:   "inventory/add-classification",
		Title:  "Add Classification",
		Errors: res.Messages(),
		Form:   res.Values,
	})
}

func (h *Handler) addClassification(w http.ResponseWriter, r *http.Request) {
	form := FormFromContext(r.Context())

	c, err := h.inventory.AddClassification(r.Context(), form.Get("classification_name"))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			h.addClassificationFailed(w, r, http.StatusBadRequest, &validation.Result{
				Values: form,
				Errors: []validation.FieldError{{Field: "classification_name", Message: msgClassificationExists}},
			})
			return
		}
		f := describeFailure(err, msgClassificationFailed)
		h.report(r, "add classification", err, f)
		flash.FromContext(r.Context()).Push(f.kind, f.message)
		h.addClassificationFailed(w, r, f.status, &validation.Result{Values: form})
		return
	}

	flash.FromContext(r.Context()).Push(flash.KindSuccess, fmt.Sprintf(msgClassificationAdded, c.Name))
	http.Redirect(w, r, inventoryPath, http.StatusFound)
}

func (h *Handler) vehicleFormView(w http.ResponseWriter, r *http.Request, status int, form validation.Values, errs []string) {
	classes, err := h.inventory.Classifications(r.Context())
	if err != nil {
		h.logger.Warn(r.Context(), "loading classifications failed", "error", err)
	}
	h.render(w, r, status, View{
		Name:   "inventory/add-inventory",
		Title:  "Add Vehicle",
		Errors: errs,
		Form:   form,
		Data:   classes,
	})
}

func (h *Handler) addVehicleView(w http.ResponseWriter, r *http.Request) {
	h.vehicleFormView(w, r, http.StatusOK, nil, nil)
}

func (h *Handler) addVehicleFailed(w http.ResponseWriter, r *http.Request, status int, res *validation.Result) {
	h.vehicleFormView(w, r, status, res.Values, res.Messages())
}

// vehicleFromForm builds a vehicle from a form that passed the vehicle
// schema, so the numeric fields are known to parse.
func vehicleFromForm(form validation.Values) *models.Vehicle {
	classID, _ := form.Int("classification_id")
	year, _ := form.Int("inv_year")
	miles, _ := form.Int("inv_miles")
	price, _ := strconv.ParseFloat(form.Get("inv_price"), 64)

	return &models.Vehicle{
		Make:             form.Get("inv_make"),
		Model:            form.Get("inv_model"),
		Description:      form.Get("inv_description"),
		Image:            form.Get("inv_image"),
		Thumbnail:        form.Get("inv_thumbnail"),
		Price:            price,
		Year:             int(year),
		Miles:            int(miles),
		Color:            form.Get("inv_color"),
		ClassificationID: classID,
	}
}

func (h *Handler) addVehicle(w http.ResponseWriter, r *http.Request) {
	form := FormFromContext(r.Context())

	v, err := h.inventory.AddVehicle(r.Context(), vehicleFromForm(form))
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			h.addVehicleFailed(w, r, http.StatusBadRequest, &validation.Result{
				Values: form,
				Errors: []validation.FieldError{{Field: "classification_id", Message: msgChooseClass}},
			})
			return
		}
		f := describeFailure(err, msgVehicleFailed)
		h.report(r, "add vehicle", err, f)
		flash.FromContext(r.Context()).Push(f.kind, f.message)
		h.addVehicleFailed(w, r, f.status, &validation.Result{Values: form})
		return
	}

	flash.FromContext(r.Context()).Push(flash.KindSuccess, fmt.Sprintf(msgVehicleAdded, v.Year, v.Make, v.Model))
	http.Redirect(w, r, inventoryPath, http.StatusFound)
}

type errorResponse struct {
	Error string `json:"error"`
}

// imageUploadURL answers with a presigned PUT for the posted filename and
// content_type.
func (h *Handler) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	upload, err := h.inventory.ImageUploadURL(r.Context(), r.PostFormValue("filename"), r.PostFormValue("content_type"))
	if err != nil {
		fallback := msgUploadFailed
		if errors.Is(err, common.ErrorValidation) {
			fallback = msgUploadRejected
		}
		f := describeFailure(err, fallback)
		h.report(r, "image upload url", err, f)
		h.writeJSON(w, r, f.status, errorResponse{Error: f.message})
		return
	}
	h.writeJSON(w, r, http.StatusOK, upload)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn(r.Context(), "writing json response failed", "error", err)
	}
}
