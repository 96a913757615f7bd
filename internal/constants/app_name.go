package constants

const (
	APP_CART_SERVICE         = "cart-service"
	APP_ORDER_SERVICE        = "order-service"
	APP_NOTIFICATION_SERVICE = "notification-service"
	APP_NOTIFICATION_WORKER  = "notification-worker"
	APP_MAIN_FOODORDER       = "main foodorder"
	AUDIENCE_ADMIN           = "audience-admin"
)
