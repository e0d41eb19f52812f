package handlers

import (
	"net/http"

	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/openapi"
)

// document describes the mounted routes in the OpenAPI document.
func (h *Handler) document() {
	o := h.docs

	o.Document(http.MethodGet, "/").Summary("Liveness banner").Tags("System").
		Text(http.StatusOK, msgRunning).Build()
	o.Document(http.MethodGet, "/healthz").Summary("Liveness probe").Tags("System").
		Response(http.StatusOK, nil, "Process is up").Build()
	o.Document(http.MethodGet, "/readyz").Summary("Readiness probe").Tags("System").
		Response(http.StatusOK, nil, "Ready to serve").
		Errors(http.StatusServiceUnavailable).Build()

	h.documentUsers(o)
	h.documentAdvisory(o)
}

func (h *Handler) documentUsers(o *openapi.OpenAPI) {
	limited := []int{http.StatusBadRequest, http.StatusTooManyRequests}

	o.Document(http.MethodPost, "/api/users/register").
		Summary("Register an account").
		Description("Creates an unverified account and emails a 6-digit verification code.").
		Tags("Users").
		Body(registerRequest{}, "New account").
		Response(http.StatusCreated, accountView{}, msgRegistered).
		Errors(append(limited, http.StatusInternalServerError)...).
		Build()

	o.Document(http.MethodPost, "/api/users/verify-otp").
		Summary("Verify email").Tags("Users").
		Body(otpRequest{}, "Email and code").
		Response(http.StatusOK, verifiedView{}, msgEmailVerified).
		Errors(limited...).Build()

	o.Document(http.MethodPost, "/api/users/resend-otp").
		Summary("Resend the verification code").Tags("Users").
		Body(emailRequest{}, "Account email").
		Response(http.StatusOK, nil, msgOTPResent).
		Errors(append(limited, http.StatusInternalServerError)...).Build()

	o.Document(http.MethodPost, "/api/users/login").
		Summary("Log in").Tags("Users").
		Body(loginRequest{}, "Credentials").
		Response(http.StatusOK, loginView{}, msgLoggedIn).
		Errors(append(limited, http.StatusUnauthorized)...).Build()

	o.Document(http.MethodPost, "/api/users/forgot-password").
		Summary("Request a password reset code").
		Description("Answers identically whether or not the email is registered.").
		Tags("Users").
		Body(emailRequest{}, "Account email").
		Response(http.StatusOK, nil, "If the email exists, a password reset OTP has been sent.").
		Errors(append(limited, http.StatusInternalServerError)...).Build()

	o.Document(http.MethodPost, "/api/users/verify-password-reset-otp").
		Summary("Check a password reset code").
		Description("Does not consume the code.").
		Tags("Users").
		Body(otpRequest{}, "Email and code").
		Response(http.StatusOK, nil, msgResetOTPVerified).
		Errors(limited...).Build()

	o.Document(http.MethodPost, "/api/users/reset-password").
		Summary("Reset the password").Tags("Users").
		Body(resetPasswordRequest{}, "Email, code and new password").
		Response(http.StatusOK, nil, msgPasswordReset).
		Errors(limited...).Build()

	o.Document(http.MethodGet, "/api/users/profile").
		Summary("Get the caller's profile").Tags("Profile").Bearer().
		Response(http.StatusOK, profileView{}, msgProfileFetched).
		Errors(http.StatusUnauthorized).Build()

	o.Document(http.MethodPut, "/api/users/profile").
		Summary("Update the caller's profile").
		Description("Omitted fields are unchanged; an empty string clears a field.").
		Tags("Profile").Bearer().
		Body(profileRequest{}, "Fields to change").
		Response(http.StatusOK, profileView{}, msgProfileUpdated).
		Errors(http.StatusBadRequest, http.StatusUnauthorized).Build()

	for _, role := range dashboardRoles {
		o.Document(http.MethodGet, "/dashboard/"+string(role)).
			Summary("Dashboard for the " + string(role) + " role").Tags("Dashboards").Bearer().
			Response(http.StatusOK, dashboardView{}, "Welcome message").
			Errors(http.StatusUnauthorized, http.StatusForbidden).Build()
	}
}

func (h *Handler) documentAdvisory(o *openapi.OpenAPI) {
	regions := make([]string, len(models.Regions))
	for i, r := range models.Regions {
		regions[i] = string(r)
	}
	seasons := make([]string, len(models.Seasons))
	for i, s := range models.Seasons {
		seasons[i] = string(s)
	}

	o.Document(http.MethodGet, "/api/advisory/crops").
		Summary("List crops").Tags("Crops").
		Response(http.StatusOK, cropListView{}, msgCropsFetched).Build()

	o.Document(http.MethodGet, "/api/advisory/plantation-guide/:cropId").
		Summary("Plantation guide for a crop").Tags("Crops").
		Response(http.StatusOK, guideView{}, msgGuideFetched).
		Errors(http.StatusBadRequest, http.StatusNotFound).Build()

	o.Document(http.MethodGet, "/api/advisory/planting-calendar/:cropId").
		Summary("Planting calendar for a crop").Tags("Crops").
		Response(http.StatusOK, calendarListView{}, msgCalendarsFetched).
		Errors(http.StatusBadRequest).Build()

	o.Document(http.MethodPost, "/api/advisory/crops/upload").
		Summary("Create a crop").
		Description("Optionally creates the plantation guide and calendar entries in the same transaction.").
		Tags("Crops").Bearer().
		Body(cropRequest{}, "Crop with optional guide and calendar").
		Response(http.StatusCreated, createdCropView{}, msgCropCreated).
		Errors(http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden).Build()

	o.Document(http.MethodPut, "/api/advisory/crops/:cropId").
		Summary("Update a crop").Tags("Crops").Bearer().
		Body(cropUpdateRequest{}, "Fields to change").
		Response(http.StatusOK, cropView{}, msgCropUpdated).
		Errors(http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound).Build()

	o.Document(http.MethodDelete, "/api/advisory/crops/:cropId").
		Summary("Delete a crop").Tags("Crops").Bearer().
		Response(http.StatusOK, nil, msgCropDeleted).
		Errors(http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound).Build()

	o.Document(http.MethodGet, "/api/advisory/crops/recommended").
		Summary("Recommendations for the caller's farm location").Tags("Crops").Bearer().
		Response(http.StatusOK, recommendationView{}, msgRecommended).
		Errors(http.StatusBadRequest, http.StatusUnauthorized).Build()

	o.Document(http.MethodGet, "/api/advisory/crops/filter").
		Summary("Filter crops").Tags("Crops").Bearer().
		Query("region", "Growing region", regions...).
		Query("season", "Growing season", seasons...).
		Query("category", "Case-insensitive category substring").
		Response(http.StatusOK, filterView{}, msgFilteredCrops).
		Errors(http.StatusBadRequest, http.StatusUnauthorized).Build()

	o.Document(http.MethodGet, "/api/advisory/crops/search").
		Summary("Search crops by name").Tags("Crops").Bearer().
		Query("q", "Case-insensitive name substring").
		Response(http.StatusOK, searchView{}, msgSearchResults).
		Errors(http.StatusBadRequest, http.StatusUnauthorized).Build()
}
