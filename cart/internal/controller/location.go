package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/foodorder/cart/internal/otel"
	"github.com/Alturino/foodorder/cart/internal/service"
	"github.com/Alturino/foodorder/cart/pkg/request"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/middleware"
)

type LocationController struct {
	service *service.CartService
}

func AttachLocationController(router *mux.Router, service *service.CartService) {
	controller := LocationController{service: service}

	router.HandleFunc("/locations", controller.Districts).Methods(http.MethodGet)

	selected := router.PathPrefix("/location").Subrouter()
	selected.Use(middleware.DeviceID)
	selected.HandleFunc("", controller.Current).Methods(http.MethodGet)
	selected.HandleFunc("", controller.Select).Methods(http.MethodPut)
	selected.HandleFunc("", controller.Clear).Methods(http.MethodDelete)
}

func (ctrl LocationController) Districts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "LocationController Districts")
	defer span.End()

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully listed districts", map[string]interface{}{
		"districts": ctrl.service.Districts(),
	})
}

func (ctrl LocationController) Current(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "LocationController Current")
	defer span.End()

	loc := ctrl.service.CurrentLocation(c, log.DeviceIDFromContext(c))
	if loc == nil {
		inHttp.WriteFailed(c, w, http.StatusNotFound, inErrors.ErrMissingLocation)
		return
	}

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully found location", map[string]interface{}{
		"location": loc,
	})
}

func (ctrl LocationController) Select(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "LocationController Select")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocationController Select").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.SelectLocation{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	if err := validator.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("decoded requestbody")

	c = logger.WithContext(c)
	loc, err := ctrl.service.SelectLocation(c, log.DeviceIDFromContext(c), reqBody.District, reqBody.Village)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrUnknownLocation) {
			status = http.StatusBadRequest
		}
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, status, err)
		return
	}

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully selected location", map[string]interface{}{
		"location": loc,
	})
}

func (ctrl LocationController) Clear(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "LocationController Clear")
	defer span.End()

	ctrl.service.ClearLocation(c, log.DeviceIDFromContext(c))

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully cleared location", nil)
}
