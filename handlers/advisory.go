package handlers

import (
	"net/http"
	"strings"

	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/server"
	"github.com/krishimitra/api/services/advisory"
	"github.com/labstack/echo/v4"
)

const (
	msgCropsFetched     = "Crops retrieved successfully"
	msgCropCreated      = "Crop created successfully"
	msgCropUpdated      = "Crop updated successfully"
	msgCropDeleted      = "Crop deleted successfully"
	msgGuideFetched     = "Plantation guide retrieved successfully"
	msgCalendarsFetched = "Planting calendars retrieved successfully"
	msgRecommended      = "Recommended crops retrieved successfully"
	msgFilteredCrops    = "Filtered crops retrieved successfully"
	msgSearchResults    = "Search results retrieved successfully"
)

func (h *Handler) ListCrops(c echo.Context) error {
	crops, err := h.advisory.ListCrops(c.Request().Context())
	if err != nil {
		return err
	}
	views := newCropViews(crops)
	return c.JSON(http.StatusOK, server.OK(msgCropsFetched, cropListView{Count: len(views), Crops: views}))
}

func (h *Handler) CreateCrop(c echo.Context) error {
	var req cropRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.advisory.CreateCrop(c.Request().Context(), req.input())
	if err != nil {
		return err
	}

	calendars := result.Calendars
	if calendars == nil {
		calendars = []models.PlantingCalendar{}
	}
	return c.JSON(http.StatusCreated, server.OK(msgCropCreated, createdCropView{
		Crop:             newCropView(result.Crop),
		PlantationGuide:  result.Guide,
		PlantingCalendar: calendars,
	}))
}

func (h *Handler) UpdateCrop(c echo.Context) error {
	id, err := cropID(c)
	if err != nil {
		return err
	}

	var req cropUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	crop, err := h.advisory.UpdateCrop(c.Request().Context(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgCropUpdated, newCropView(crop)))
}

func (h *Handler) DeleteCrop(c echo.Context) error {
	id, err := cropID(c)
	if err != nil {
		return err
	}

	if err := h.advisory.DeleteCrop(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgCropDeleted, nil))
}

func (h *Handler) PlantationGuide(c echo.Context) error {
	id, err := cropID(c)
	if err != nil {
		return err
	}

	guide, err := h.advisory.PlantationGuide(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgGuideFetched, newGuideView(guide)))
}

func (h *Handler) PlantingCalendars(c echo.Context) error {
	id, err := cropID(c)
	if err != nil {
		return err
	}

	calendars, err := h.advisory.PlantingCalendars(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgCalendarsFetched, calendarListView{Count: len(calendars), Calendars: calendars}))
}

func (h *Handler) RecommendedCrops(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	rec, err := h.advisory.RecommendForAccount(c.Request().Context(), identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, server.OK(msgRecommended, newRecommendationView(rec)))
}

func (h *Handler) FilterCrops(c echo.Context) error {
	filter := advisory.Filter{
		Region:   models.Region(strings.TrimSpace(c.QueryParam("region"))),
		Season:   models.Season(strings.TrimSpace(c.QueryParam("season"))),
		Category: strings.TrimSpace(c.QueryParam("category")),
	}

	crops, err := h.advisory.FilterCrops(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	applied := map[string]string{}
	if filter.Region != "" {
		applied["region"] = string(filter.Region)
	}
	if filter.Season != "" {
		applied["season"] = string(filter.Season)
	}
	if filter.Category != "" {
		applied["category"] = filter.Category
	}

	views := newCropViews(crops)
	return c.JSON(http.StatusOK, server.OK(msgFilteredCrops, filterView{Count: len(views), Filters: applied, Crops: views}))
}

func (h *Handler) SearchCrops(c echo.Context) error {
	q := c.QueryParam("q")

	crops, err := h.advisory.SearchCrops(c.Request().Context(), q)
	if err != nil {
		return err
	}

	views := newCropViews(crops)
	return c.JSON(http.StatusOK, server.OK(msgSearchResults, searchView{Count: len(views), Query: q, Crops: views}))
}
