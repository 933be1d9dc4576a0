package errors

import (
	stderrors "errors"
)

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"

	// AccountNotFoundError is returned when an account id is unknown to the ledger.
	AccountNotFoundError ErrorCode = "account_not_found"
	// AccountAlreadyExistsError is returned when an account id is created twice.
	AccountAlreadyExistsError ErrorCode = "account_already_exists"
	// InsufficientCollateralError is returned when an intent exceeds the free collateral of its account.
	InsufficientCollateralError ErrorCode = "insufficient_collateral"
	// InvalidOrderError is returned for orders with a zero amount or price, or an unrepresentable total.
	InvalidOrderError ErrorCode = "invalid_order"
	// OrderNotFoundError is returned when a resting order does not exist.
	OrderNotFoundError ErrorCode = "order_not_found"
	// SettlementFailedError marks a batch that could not be applied to the ledger after matching.
	SettlementFailedError ErrorCode = "settlement_failed"

	// MailboxFullError is returned when a component refuses a message because its mailbox is full.
	MailboxFullError ErrorCode = "mailbox_full"
	// ComponentStoppedError is returned when a message is sent to a component that is not running.
	ComponentStoppedError ErrorCode = "component_stopped"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
)

// New creates ErrorDetails for the given code.
func New(code ErrorCode, message, field string) *ErrorDetails {
	return NewErrorDetails(message, string(code), field)
}

// NewWithObject creates ErrorDetails for the given code carrying the object the error occurred on.
func NewWithObject(code ErrorCode, message, field string, object interface{}) *ErrorDetails {
	return NewErrorDetailsWithObject(message, string(code), field, object)
}

// CodeOf returns the code of the first ErrorDetails in err's chain.
// Errors that carry no code are reported as GeneralInternalServerError.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var details *ErrorDetails
	if stderrors.As(err, &details) {
		return ErrorCode(details.Code)
	}
	return GeneralInternalServerError
}

// IsNotFound reports whether err refers to an unknown account or order.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == AccountNotFoundError || code == OrderNotFoundError
}
