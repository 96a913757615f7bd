package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyDbURL              = "dbUrl"
	KeyAuthToken          = "authToken"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyDeviceID           = "deviceId"
	KeyStoreKey           = "storeKey"
	KeyCacheKey           = "cacheKey"
	KeyLineID             = "lineId"
	KeyProductID          = "productId"
	KeyQuantity           = "quantity"
	KeyItemCount          = "itemCount"
	KeyCartTotal          = "cartTotal"
	KeyCartItems          = "cartItems"
	KeyLocation           = "location"
	KeyBreakdown          = "breakdown"
	KeyOrder              = "order"
	KeyOrderNumber        = "orderNumber"
	KeyOrderStatus        = "orderStatus"
	KeyOrderStatusTarget  = "orderStatusTarget"
	KeyTopic              = "topic"
	KeyEvent              = "event"
	KeyCircuitBreakerName = "circuitBreaker"
)
