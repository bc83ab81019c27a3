package handlers

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/facetrace/facetrace/internal/database"
)

// otpTTL is how long a verification code stays valid.
const otpTTL = 5 * time.Minute

// OTPSender delivers a verification code to an email address.
type OTPSender interface {
	SendOTP(ctx context.Context, toEmail, code string) error
}

// OTPHandler handles email verification endpoints.
type OTPHandler struct {
	users  database.UserStore
	codes  database.OTPStore
	mailer OTPSender
}

// NewOTPHandler creates a new OTP handler.
func NewOTPHandler(users database.UserStore, codes database.OTPStore, m OTPSender) *OTPHandler {
	return &OTPHandler{
		users:  users,
		codes:  codes,
		mailer: m,
	}
}

// generateCode produces a 6-digit verification code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

type otpSendRequest struct {
	Email string `json:"email"`
}

// Send generates a code, persists it, and emails it. Sending is
// refused for already-registered emails.
func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req otpSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to look up account")
		return
	}
	if existing != nil {
		respondError(w, http.StatusBadRequest, "email is already registered")
		return
	}

	code, err := generateCode()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate code")
		return
	}

	otp := &database.OTPCode{
		Email:     req.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := h.codes.Insert(r.Context(), otp); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store code")
		return
	}

	if err := h.mailer.SendOTP(r.Context(), req.Email, code); err != nil {
		log.Printf("failed to send OTP to %s: %v", sanitizeForLog(req.Email), err)
		respondError(w, http.StatusInternalServerError, "failed to send verification email")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Verify checks a submitted code. A valid code is deleted on success
// so it cannot be replayed.
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Email == "" || req.OTP == "" {
		respondError(w, http.StatusBadRequest, "email and otp are required")
		return
	}

	code, err := h.codes.GetValid(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to look up code")
		return
	}
	if code == nil {
		respondError(w, http.StatusBadRequest, "invalid or expired code")
		return
	}

	if err := h.codes.Delete(r.Context(), code.ID); err != nil {
		log.Printf("failed to delete used OTP code %d: %v", code.ID, err)
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}
