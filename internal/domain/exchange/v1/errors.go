package exchangev1

import (
	"fmt"

	"github.com/muhammadchandra19/matcha/pkg/errors"
)

// ErrAccountNotFound is returned for an unknown account id.
func ErrAccountNotFound(id AccountID) error {
	return errors.NewWithObject(errors.AccountNotFoundError, fmt.Sprintf("account %d not found", id), "account", id)
}

// ErrAccountAlreadyExists is returned when id is already taken.
func ErrAccountAlreadyExists(id AccountID) error {
	return errors.NewWithObject(errors.AccountAlreadyExistsError, fmt.Sprintf("account %d already exists", id), "id", id)
}

// ErrInsufficientCollateral is returned when total exceeds the free collateral of id.
func ErrInsufficientCollateral(id AccountID, free, total Balance) error {
	return errors.NewWithObject(errors.InsufficientCollateralError,
		fmt.Sprintf("insufficient free collateral on account %d: %d available, %d required", id, free, total), "amount", id)
}

// ErrOrderNotFound is returned when no resting order with id exists for the requester.
func ErrOrderNotFound(id uint64) error {
	return errors.NewWithObject(errors.OrderNotFoundError, fmt.Sprintf("order %d not found", id), "order_id", id)
}
