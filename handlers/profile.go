package handlers

import (
	"net/http"
	"strings"

	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/middleware/auth"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/server"
	"github.com/labstack/echo/v4"
)

const (
	msgProfileFetched = "Profile retrieved successfully"
	msgProfileUpdated = "Profile updated successfully"
)

func currentIdentity(c echo.Context) (*auth.Identity, error) {
	identity := auth.GetIdentity(c)
	if identity == nil {
		return nil, apperror.New(apperror.Unauthorized, auth.MsgAuthRequired)
	}
	return identity, nil
}

func (h *Handler) GetProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.profiles.Get(c.Request().Context(), identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgProfileFetched, profileView{User: view.Account, UserDetails: view.Profile}))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	view, err := h.profiles.Update(c.Request().Context(), identity.ID, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgProfileUpdated, profileView{User: view.Account, UserDetails: view.Profile}))
}

// Dashboard greets the caller on the dashboard for role. The route is
// expected to sit behind Authorize(role).
func (h *Handler) Dashboard(role models.Role) echo.HandlerFunc {
	name := strings.ToUpper(string(role[:1])) + string(role[1:])
	message := "Welcome to " + name + " Dashboard"

	return func(c echo.Context) error {
		identity, err := currentIdentity(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, server.OK(message, dashboardView{User: identity, Dashboard: string(role)}))
	}
}
