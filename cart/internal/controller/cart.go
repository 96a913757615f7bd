package controller

import (
	"encoding/json"
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
	"github.com/Alturino/foodorder/internal/validate"
)

var validator = validate.New()

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, service *service.CartService) {
	controller := CartController{service: service}

	cart := router.PathPrefix("/cart").Subrouter()
	cart.Use(middleware.DeviceID)
	cart.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	cart.HandleFunc("", controller.ClearCart).Methods(http.MethodDelete)
	cart.HandleFunc("/summary", controller.Summary).Methods(http.MethodGet)
	cart.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	// line ids carry client product ids, which may contain slashes
	cart.HandleFunc("/items/{lineId:.+}", controller.UpdateQuantity).Methods(http.MethodPatch)
	cart.HandleFunc("/items/{lineId:.+}", controller.RemoveItem).Methods(http.MethodDelete)
}

func (ctrl CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	deviceID := log.DeviceIDFromContext(c)
	cart := ctrl.service.FindCart(c, deviceID)

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully found cart", map[string]interface{}{
		"cart": cart,
	})
}

func (ctrl CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.AddCartItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("decoded requestbody")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating requestbody")
	if err := validator.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("validated requestbody")

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	cart, err := ctrl.service.AddItem(c, log.DeviceIDFromContext(c), reqBody.ToInput())
	if err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("added item")

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully added item", map[string]interface{}{
		"cart": cart,
	})
}

func (ctrl CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	lineID := mux.Vars(r)["lineId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateQuantity").
		Str(log.KeyLineID, lineID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.UpdateQuantity{}
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
	cart := ctrl.service.UpdateQuantity(c, log.DeviceIDFromContext(c), lineID, *reqBody.Quantity)

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully updated quantity", map[string]interface{}{
		"cart": cart,
	})
}

func (ctrl CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	lineID := mux.Vars(r)["lineId"]
	cart := ctrl.service.RemoveItem(c, log.DeviceIDFromContext(c), lineID)

	inHttp.WriteSuccess(c, w, http.StatusOK, fmt.Sprintf("lineId=%s removed", lineID), map[string]interface{}{
		"cart": cart,
	})
}

func (ctrl CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	ctrl.service.ClearCart(c, log.DeviceIDFromContext(c))

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully cleared cart", nil)
}

func (ctrl CartController) Summary(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Summary")
	defer span.End()

	summary := ctrl.service.Summary(c, log.DeviceIDFromContext(c))

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully calculated summary", map[string]interface{}{
		"summary": summary,
	})
}
