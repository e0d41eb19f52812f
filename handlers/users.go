package handlers

import (
	"net/http"
	"strings"

	"github.com/krishimitra/api/internal/apperror"
	authsvc "github.com/krishimitra/api/services/auth"
	"github.com/krishimitra/api/server"
	"github.com/labstack/echo/v4"
)

const (
	msgRegistered       = "Registration successful. Please check your email for verification OTP."
	msgEmailVerified    = "Email verified successfully"
	msgOTPResent        = "Verification OTP has been resent. Please check your email."
	msgLoggedIn         = "Login successful"
	msgResetOTPVerified = "OTP verified successfully"
	msgPasswordReset    = "Password has been reset successfully"

	msgEmailAndOTPRequired      = "Email and OTP are required."
	msgEmailAndPasswordRequired = "Email and password are required."
	msgEmailRequired            = "Email is required."
	msgResetFieldsRequired      = "Email, OTP, and new password are required."
)

func required(message string, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return apperror.New(apperror.Validation, message)
		}
	}
	return nil
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Register(c.Request().Context(), authsvc.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, server.OK(msgRegistered, newAccountView(account)))
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := required(msgEmailAndOTPRequired, req.Email, req.OTP); err != nil {
		return err
	}

	account, err := h.accounts.VerifyEmail(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return unknownAccountAsInvalid(err)
	}

	return c.JSON(http.StatusOK, server.OK(msgEmailVerified, verifiedView{
		ID:       account.ID,
		Email:    account.Email,
		Verified: account.Verified,
	}))
}

func (h *Handler) ResendOTP(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := required(msgEmailRequired, req.Email); err != nil {
		return err
	}

	if err := h.accounts.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return unknownAccountAsInvalid(err)
	}
	return c.JSON(http.StatusOK, server.OK(msgOTPResent, nil))
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := required(msgEmailAndPasswordRequired, req.Email, req.Password); err != nil {
		return err
	}

	result, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, server.OK(msgLoggedIn, loginView{
		Token: result.Token,
		User:  newAccountView(result.Account),
	}))
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := required(msgEmailRequired, req.Email); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(authsvc.MsgResetRequested, nil))
}

func (h *Handler) VerifyPasswordResetOTP(c echo.Context) error {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := required(msgEmailAndOTPRequired, req.Email, req.OTP); err != nil {
		return err
	}

	if err := h.accounts.VerifyPasswordResetOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return unknownAccountAsInvalid(err)
	}
	return c.JSON(http.StatusOK, server.OK(msgResetOTPVerified, nil))
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := required(msgResetFieldsRequired, req.Email, req.OTP, req.NewPassword); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return unknownAccountAsInvalid(err)
	}
	return c.JSON(http.StatusOK, server.OK(msgPasswordReset, nil))
}
