package notification

import "errors"

var (
	ErrFailedToSendEmail = errors.New("notification.errors.failed_to_send_email")
	ErrInvalidConfig     = errors.New("notification.errors.invalid_config")
	ErrInvalidParams     = errors.New("notification.errors.invalid_params")
)
