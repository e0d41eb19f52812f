package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

const (
	BearerScheme = "bearerAuth"
	errorSchema  = "Error"
)

// OpenAPI accumulates the API document as routes are registered.
type OpenAPI struct {
	spec    *openapi3.T
	mu      sync.RWMutex
	schemas map[reflect.Type]string
}

func New(title, version string) *OpenAPI {
	o := &OpenAPI{
		spec: &openapi3.T{
			OpenAPI: "3.0.3",
			Info:    &openapi3.Info{Title: title, Version: version},
			Paths:   openapi3.NewPaths(),
			Components: &openapi3.Components{
				Schemas:         openapi3.Schemas{},
				SecuritySchemes: openapi3.SecuritySchemes{},
			},
		},
		schemas: map[reflect.Type]string{},
	}

	o.spec.Components.SecuritySchemes[BearerScheme] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Session token returned by POST /api/users/login",
		},
	}
	o.spec.Components.Schemas[errorSchema] = &openapi3.SchemaRef{Value: envelopeSchema(nil, true)}
	return o
}

func (o *OpenAPI) Description(desc string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Info.Description = desc
	return o
}

func (o *OpenAPI) Server(url, description string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Servers = append(o.spec.Servers, &openapi3.Server{URL: url, Description: description})
	return o
}

func (o *OpenAPI) Tag(name, description string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Tags = append(o.spec.Tags, &openapi3.Tag{Name: name, Description: description})
	return o
}

func (o *OpenAPI) Spec() *openapi3.T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.spec
}

func (o *OpenAPI) JSON() ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return json.MarshalIndent(o.spec, "", "  ")
}

func (o *OpenAPI) YAML() ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	intermediate, err := o.spec.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

func (o *OpenAPI) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := o.JSON()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func (o *OpenAPI) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := o.YAML()
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}

func (o *OpenAPI) SwaggerUIHandler(specPath string) echo.HandlerFunc {
	page := `<!DOCTYPE html>
<html>
<head>
    <title>` + o.spec.Info.Title + `</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "` + specPath + `",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`
	return func(c echo.Context) error {
		return c.HTML(http.StatusOK, page)
	}
}

// Mount serves the UI at prefix and the document at prefix/openapi.json
// and prefix/openapi.yaml.
func (o *OpenAPI) Mount(e *echo.Echo, prefix string) {
	e.GET(prefix, o.SwaggerUIHandler(prefix+"/openapi.json"))
	e.GET(prefix+"/openapi.json", o.JSONHandler())
	e.GET(prefix+"/openapi.yaml", o.YAMLHandler())
}

func (o *OpenAPI) addOperation(method, path string, op *openapi3.Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	openAPIPath := echoPathToOpenAPI(path)
	pathItem := o.spec.Paths.Find(openAPIPath)
	if pathItem == nil {
		pathItem = &openapi3.PathItem{}
		o.spec.Paths.Set(openAPIPath, pathItem)
	}
	pathItem.SetOperation(strings.ToUpper(method), op)
}

func echoPathToOpenAPI(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			parts[i] = "{" + strings.TrimPrefix(part, ":") + "}"
		}
	}
	return strings.Join(parts, "/")
}

// envelopeSchema describes the response envelope. A nil data schema leaves
// the data property out.
func envelopeSchema(data *openapi3.SchemaRef, failure bool) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"success": openapi3.NewBoolSchema().NewRef(),
			"message": openapi3.NewStringSchema().NewRef(),
		},
		Required: []string{"success", "message"},
	}
	if data != nil {
		schema.Properties["data"] = data
	}
	if failure {
		schema.Properties["errors"] = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()).NewRef()
		schema.Properties["error"] = openapi3.NewStringSchema().NewRef()
	}
	return schema
}

// schemaFor derives a schema from a Go value. Named structs are stored once
// under components and referenced.
func (o *OpenAPI) schemaFor(example any) *openapi3.SchemaRef {
	o.mu.Lock()
	defer o.mu.Unlock()

	if example == nil {
		return openapi3.NewObjectSchema().NewRef()
	}
	return o.schemaFromType(reflect.TypeOf(example), map[reflect.Type]bool{})
}

func (o *OpenAPI) schemaFromType(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.SchemaRef {
	if t.Kind() == reflect.Pointer {
		ref := o.schemaFromType(t.Elem(), visiting)
		if ref.Ref != "" {
			return &openapi3.SchemaRef{Value: &openapi3.Schema{AllOf: openapi3.SchemaRefs{ref}, Nullable: true}}
		}
		ref.Value.Nullable = true
		return ref
	}

	switch t.Kind() {
	case reflect.String:
		return openapi3.NewStringSchema().NewRef()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return openapi3.NewIntegerSchema().NewRef()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return openapi3.NewIntegerSchema().WithMin(0).NewRef()
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema().NewRef()
	case reflect.Bool:
		return openapi3.NewBoolSchema().NewRef()
	case reflect.Slice, reflect.Array:
		items := o.schemaFromType(t.Elem(), visiting)
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}}
	case reflect.Map:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:                 &openapi3.Types{"object"},
			AdditionalProperties: openapi3.AdditionalProperties{Schema: o.schemaFromType(t.Elem(), visiting)},
		}}
	case reflect.Struct:
		return o.structSchema(t, visiting)
	default:
		return openapi3.NewObjectSchema().NewRef()
	}
}

func (o *OpenAPI) structSchema(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.SchemaRef {
	if t.PkgPath() == "time" && t.Name() == "Time" {
		return openapi3.NewDateTimeSchema().NewRef()
	}
	if name, ok := o.schemas[t]; ok {
		return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
	}
	if visiting[t] || t.Name() == "" {
		return &openapi3.SchemaRef{Value: o.buildStruct(t, visiting)}
	}

	name := t.Name()
	o.schemas[t] = name
	o.spec.Components.Schemas[name] = &openapi3.SchemaRef{Value: o.buildStruct(t, visiting)}
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func (o *OpenAPI) buildStruct(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.Schema {
	visiting[t] = true
	defer delete(visiting, t)

	schema := &openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: openapi3.Schemas{}}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if !field.IsExported() || tag == "-" {
			continue
		}

		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			embedded := o.buildStruct(field.Type, visiting)
			for name, prop := range embedded.Properties {
				schema.Properties[name] = prop
			}
			schema.Required = append(schema.Required, embedded.Required...)
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}

		prop := o.schemaFromType(field.Type, visiting)
		if doc := field.Tag.Get("doc"); doc != "" && prop.Value != nil {
			prop.Value.Description = doc
		}
		schema.Properties[name] = prop

		if !strings.Contains(opts, "omitempty") && field.Type.Kind() != reflect.Pointer {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}
