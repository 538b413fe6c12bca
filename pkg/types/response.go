package types

// Ack is the body returned to webhook callers for handled deliveries.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Message is a bare message body.
type Message struct {
	Message string `json:"message"`
}

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the failure shape. Code is the stable pkg/errors code.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
