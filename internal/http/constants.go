package http

const (
	KEY_HEADER_CONTENT_TYPE       = "Content-Type"
	KEY_HEADER_REQUEST_ID         = "X-Request-ID"
	KEY_HEADER_DEVICE_ID          = "X-Device-ID"
	KEY_HEADER_AUTHORIZATION      = "Authorization"
	VALUE_HEADER_APPLICATION_JSON = "application/json"
)

const (
	STATUS_SUCCESS = "success"
	STATUS_FAILED  = "failed"
)
