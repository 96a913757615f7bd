package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/middleware"
	"github.com/Alturino/foodorder/internal/validate"
	"github.com/Alturino/foodorder/order/internal/otel"
	"github.com/Alturino/foodorder/order/internal/service"
	"github.com/Alturino/foodorder/order/pkg/request"
)

var validator = validate.New()

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(router *mux.Router, service *service.OrderService, secretKey string) {
	controller := OrderController{service: service}

	router.Handle(
		"/orders/{orderNumber}/status",
		middleware.Auth(secretKey)(http.HandlerFunc(controller.UpdateStatus)),
	).Methods(http.MethodPatch)

	orders := router.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.DeviceID)
	orders.HandleFunc("", controller.FindOrders).Methods(http.MethodGet)
	orders.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
	orders.HandleFunc("/profile", controller.Profile).Methods(http.MethodGet)
	orders.HandleFunc("/{orderNumber}", controller.TrackOrder).Methods(http.MethodGet)
}

// statusCode maps service errors onto the response status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrEmptyCart),
		errors.Is(err, inErrors.ErrMissingLocation),
		errors.Is(err, inErrors.ErrUnknownLocation),
		errors.Is(err, inErrors.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (ctrl OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Checkout").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.Checkout{}
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

	logger = logger.With().Str(log.KeyProcess, "checking out").Logger()
	logger.Info().Msg("checking out")
	c = logger.WithContext(c)
	checkout, err := ctrl.service.Checkout(c, log.DeviceIDFromContext(c), reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusCode(err), err)
		return
	}
	logger.Info().Int64(log.KeyOrderNumber, checkout.Order.OrderNumber).Msg("checked out")

	inHttp.WriteSuccess(c, w, http.StatusCreated, "successfully placed order", map[string]interface{}{
		"order":      checkout.Order,
		"handoffUrl": checkout.HandoffURL,
	})
}

func (ctrl OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	orders, err := ctrl.service.ListOrders(c, log.DeviceIDFromContext(c))
	if err != nil {
		inErrors.HandleError(err, span)
		inHttp.WriteFailed(c, w, statusCode(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully found orders", map[string]interface{}{
		"orders": orders,
	})
}

func (ctrl OrderController) Profile(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Profile")
	defer span.End()

	profile := ctrl.service.Profile(c, log.DeviceIDFromContext(c))
	if profile == nil {
		inHttp.WriteFailed(c, w, http.StatusNotFound, errors.New("no saved profile"))
		return
	}

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully found profile", map[string]interface{}{
		"profile": profile,
	})
}

// TrackOrder only shows an order to the device that placed it.
func (ctrl OrderController) TrackOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController TrackOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController TrackOrder").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating orderNumber").Logger()
	logger.Info().Msg("validating orderNumber")
	orderNumber, err := service.ParseOrderNumber(mux.Vars(r)["orderNumber"])
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusNotFound, err)
		return
	}
	logger = logger.With().Int64(log.KeyOrderNumber, orderNumber).Logger()
	logger.Info().Msg("validated orderNumber")

	logger = logger.With().Str(log.KeyProcess, "tracking order").Logger()
	logger.Info().Msg("tracking order")
	c = logger.WithContext(c)
	tracking, err := ctrl.service.Track(c, orderNumber)
	if err == nil && tracking.Order.DeviceID != log.DeviceIDFromContext(c) {
		err = fmt.Errorf("%w: orderNumber=%d", inErrors.ErrOrderNotFound, orderNumber)
	}
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("tracked order")

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully found order", map[string]interface{}{
		"order":    tracking.Order,
		"timeline": tracking.Timeline,
	})
}

func (ctrl OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController UpdateStatus")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController UpdateStatus").
		Logger()

	orderNumber, err := service.ParseOrderNumber(mux.Vars(r)["orderNumber"])
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusNotFound, err)
		return
	}
	logger = logger.With().Int64(log.KeyOrderNumber, orderNumber).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.UpdateStatus{}
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

	logger = logger.With().Str(log.KeyProcess, "updating order status").Logger()
	logger.Info().Msg("updating order status")
	c = logger.WithContext(c)
	order, err := ctrl.service.UpdateStatus(c, orderNumber, reqBody.Status)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("updated order status")

	inHttp.WriteSuccess(c, w, http.StatusOK, "successfully updated order status", map[string]interface{}{
		"order": order,
	})
}
