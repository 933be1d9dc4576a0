package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/muhammadchandra19/matcha/internal/app/engine"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
)

// CreateAccountRequest is the body of PUT /accounts.
type CreateAccountRequest struct {
	ID exchangev1.AccountID `json:"id"`
}

// DepositRequest is the body of POST /accounts/{id}/deposits.
type DepositRequest struct {
	Balance exchangev1.Balance `json:"balance"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Code  errors.ErrorCode `json:"code"`
	Error string           `json:"error"`
}

// handleGetAccounts handles GET /accounts
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.exchange.GetAccounts(r.Context(), engine.AccountQuery{})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

// handleCreateAccount handles PUT /accounts
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	account, err := s.exchange.CreateAccount(r.Context(), exchangev1.Account{ID: req.ID})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, account)
}

// handleGetAccount handles GET /accounts/{id}
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountVar(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	accounts, err := s.exchange.GetAccounts(r.Context(), engine.AccountQuery{ID: &id})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, accounts[0])
}

// handleDeposit handles POST /accounts/{id}/deposits
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := accountVar(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req DepositRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	account, err := s.exchange.Deposit(r.Context(), id, req.Balance)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// handleSubmitOrder handles PUT /orders
func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var intent exchangev1.OrderIntent
	if err := decode(r, &intent); err != nil {
		s.respondError(w, r, err)
		return
	}

	receipt, err := s.exchange.SubmitIntent(r.Context(), intent)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// handleCancelOrder handles DELETE /orders/{id}?account=N
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondError(w, r, errors.New(errors.GeneralBadRequestError, "order id must be an unsigned integer", "id"))
		return
	}
	account, err := strconv.ParseUint(r.URL.Query().Get("account"), 10, 64)
	if err != nil {
		s.respondError(w, r, errors.New(errors.GeneralBadRequestError, "account query parameter is required", "account"))
		return
	}

	receipt, err := s.exchange.SubmitIntent(r.Context(), exchangev1.CancelIntent{
		Account: exchangev1.AccountID(account),
		OrderID: orderID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, receipt)
}

// handleGetOrderBook handles GET /orderbook
func (s *Server) handleGetOrderBook(w http.ResponseWriter, r *http.Request) {
	depth, err := s.exchange.ShowOrderBook(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, depth)
}

func accountVar(r *http.Request) (exchangev1.AccountID, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.New(errors.GeneralBadRequestError, "account id must be an unsigned integer", "id")
	}
	return exchangev1.AccountID(id), nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.CodeOf(err) != errors.GeneralInternalServerError {
			return err
		}
		return errors.New(errors.GeneralBadRequestError, fmt.Sprintf("invalid JSON: %s", err.Error()), "body")
	}
	return nil
}

// statusOf maps an error code to the HTTP status returned for it.
func statusOf(code errors.ErrorCode) int {
	switch code {
	case errors.AccountNotFoundError, errors.OrderNotFoundError:
		return http.StatusNotFound
	case errors.AccountAlreadyExistsError:
		return http.StatusConflict
	case errors.InsufficientCollateralError, errors.SettlementFailedError:
		return http.StatusUnprocessableEntity
	case errors.InvalidOrderError, errors.GeneralBadRequestError:
		return http.StatusBadRequest
	case errors.MailboxFullError, errors.ComponentStoppedError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	status := statusOf(code)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), err, logger.NewField("path", r.URL.Path))
	}

	respondJSON(w, status, ErrorResponse{Code: code, Error: err.Error()})
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
