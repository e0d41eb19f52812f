package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krishimitra/api/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type cropView struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name" doc:"Crop name"`
	Regions   []string  `json:"regions"`
	Guide     *guide    `json:"guide,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	internal  string
}

type guide struct {
	Soil string `json:"soil"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Ignored  string `json:"-"`
}

func TestEchoPathToOpenAPI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/crops", "/api/crops"},
		{"/api/crops/:cropId", "/api/crops/{cropId}"},
		{"/api/crops/:cropId/guide", "/api/crops/{cropId}/guide"},
		{"/", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, echoPathToOpenAPI(tt.in))
	}
}

func TestDocument(t *testing.T) {
	o := New("KrishiMitra API", "1.0.0")

	o.Document(http.MethodGet, "/api/crops/:cropId").
		Summary("Get crop").
		Tags("Crops").
		Response(http.StatusOK, cropView{}, "Crop").
		Errors(http.StatusBadRequest, http.StatusNotFound).
		Build()

	o.Document(http.MethodPost, "/api/users/login").
		Tags("Users").
		Body(loginRequest{}, "Credentials").
		Response(http.StatusOK, nil, "Logged in").
		Bearer().
		Build()

	spec := o.Spec()

	item := spec.Paths.Find("/api/crops/{cropId}")
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	assert.Equal(t, "Get crop", item.Get.Summary)
	assert.Equal(t, []string{"Crops"}, item.Get.Tags)

	require.Len(t, item.Get.Parameters, 1)
	param := item.Get.Parameters[0].Value
	assert.Equal(t, "cropId", param.Name)
	assert.Equal(t, "path", param.In)
	assert.True(t, param.Schema.Value.Type.Is("integer"))

	ok := item.Get.Responses.Status(http.StatusOK)
	require.NotNil(t, ok)
	envelope := ok.Value.Content.Get("application/json").Schema.Value
	assert.ElementsMatch(t, []string{"success", "message"}, envelope.Required)
	assert.Equal(t, "#/components/schemas/cropView", envelope.Properties["data"].Ref)

	notFound := item.Get.Responses.Status(http.StatusNotFound)
	require.NotNil(t, notFound)
	assert.Equal(t, "#/components/schemas/Error", notFound.Value.Content.Get("application/json").Schema.Ref)

	crop := spec.Components.Schemas["cropView"].Value
	require.NotNil(t, crop)
	assert.Contains(t, crop.Properties, "name")
	assert.NotContains(t, crop.Properties, "internal")
	assert.Equal(t, "Crop name", crop.Properties["name"].Value.Description)
	assert.Equal(t, "date-time", crop.Properties["createdAt"].Value.Format)
	assert.True(t, crop.Properties["regions"].Value.Type.Is("array"))
	assert.ElementsMatch(t, []string{"id", "name", "regions", "createdAt"}, crop.Required)
	assert.Contains(t, spec.Components.Schemas, "guide")

	login := spec.Paths.Find("/api/users/login")
	require.NotNil(t, login)
	require.NotNil(t, login.Post)
	body := login.Post.RequestBody.Value.Content.Get("application/json").Schema
	assert.Equal(t, "#/components/schemas/loginRequest", body.Ref)
	assert.NotContains(t, spec.Components.Schemas["loginRequest"].Value.Properties, "Ignored")
	require.NotNil(t, login.Post.Security)
	assert.Contains(t, (*login.Post.Security)[0], BearerScheme)
	assert.NotContains(t, login.Post.Responses.Status(http.StatusOK).Value.Content.Get("application/json").Schema.Value.Properties, "data")
}

func TestQuery(t *testing.T) {
	o := New("API", "1")
	o.Document(http.MethodGet, "/api/crops/filter").
		Query("season", "Growing season", "Spring", "Monsoon").
		Build()

	op := o.Spec().Paths.Find("/api/crops/filter").Get
	require.Len(t, op.Parameters, 1)
	param := op.Parameters[0].Value
	assert.Equal(t, "query", param.In)
	assert.False(t, param.Required)
	assert.Equal(t, []any{"Spring", "Monsoon"}, param.Schema.Value.Enum)
}

func TestHandlers(t *testing.T) {
	o := New("KrishiMitra API", "1.0.0").Tag("Crops", "Crop catalog")
	o.Document(http.MethodGet, "/api/crops").Summary("List crops").Build()

	e := echo.New()
	o.Mount(e, "/docs")

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
		assert.Contains(t, doc["paths"], "/api/crops")
	})

	t.Run("yaml", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
	})

	t.Run("ui", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `url: "/docs/openapi.json"`)
		assert.Contains(t, rec.Body.String(), "<title>KrishiMitra API</title>")
	})
}

func TestProvideOpenAPI(t *testing.T) {
	cfg := testutils.GetTestConfig()

	o := ProvideOpenAPI(cfg)

	spec := o.Spec()
	assert.Equal(t, cfg.App.Name+" API", spec.Info.Title)
	assert.Equal(t, Version, spec.Info.Version)
	require.Len(t, spec.Servers, 1)
	assert.Equal(t, cfg.App.URL, spec.Servers[0].URL)
	assert.Contains(t, spec.Components.SecuritySchemes, BearerScheme)
	assert.NotEmpty(t, spec.Tags)
}
