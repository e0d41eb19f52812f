package openapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// RouteBuilder documents one operation. Nothing is recorded until Build.
type RouteBuilder struct {
	openapi   *OpenAPI
	method    string
	path      string
	operation *openapi3.Operation
}

func (o *OpenAPI) Document(method, path string) *RouteBuilder {
	rb := &RouteBuilder{
		openapi:   o,
		method:    method,
		path:      path,
		operation: &openapi3.Operation{Responses: openapi3.NewResponses()},
	}
	rb.pathParams()
	return rb
}

// pathParams declares every :name segment. Names ending in Id are integers.
func (rb *RouteBuilder) pathParams() {
	for _, part := range strings.Split(rb.path, "/") {
		name, ok := strings.CutPrefix(part, ":")
		if !ok {
			continue
		}
		schema := openapi3.NewStringSchema()
		if strings.HasSuffix(name, "Id") || name == "id" {
			schema = openapi3.NewIntegerSchema().WithMin(1)
		}
		rb.operation.AddParameter(openapi3.NewPathParameter(name).WithSchema(schema))
	}
}

func (rb *RouteBuilder) Summary(summary string) *RouteBuilder {
	rb.operation.Summary = summary
	return rb
}

func (rb *RouteBuilder) Description(description string) *RouteBuilder {
	rb.operation.Description = description
	return rb
}

func (rb *RouteBuilder) Tags(tags ...string) *RouteBuilder {
	rb.operation.Tags = append(rb.operation.Tags, tags...)
	return rb
}

// Query declares an optional string query parameter, restricted to values
// when any are given.
func (rb *RouteBuilder) Query(name, description string, values ...string) *RouteBuilder {
	schema := openapi3.NewStringSchema()
	for _, v := range values {
		schema.Enum = append(schema.Enum, v)
	}
	rb.operation.AddParameter(openapi3.NewQueryParameter(name).WithDescription(description).WithSchema(schema))
	return rb
}

func (rb *RouteBuilder) Body(example any, description string) *RouteBuilder {
	rb.operation.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithDescription(description).
			WithRequired(true).
			WithJSONSchemaRef(rb.openapi.schemaFor(example)),
	}
	return rb
}

// Response documents a success envelope whose data has the shape of
// example. A nil example documents an envelope without data.
func (rb *RouteBuilder) Response(status int, example any, description string) *RouteBuilder {
	var data *openapi3.SchemaRef
	if example != nil {
		data = rb.openapi.schemaFor(example)
	}
	rb.operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchema(envelopeSchema(data, false)),
	})
	return rb
}

// Errors documents failure statuses with the shared error envelope.
func (rb *RouteBuilder) Errors(statuses ...int) *RouteBuilder {
	for _, status := range statuses {
		rb.operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(http.StatusText(status)).
				WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/"+errorSchema, nil)),
		})
	}
	return rb
}

// Text documents a plain-text response.
func (rb *RouteBuilder) Text(status int, description string) *RouteBuilder {
	rb.operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"})),
	})
	return rb
}

func (rb *RouteBuilder) Bearer() *RouteBuilder {
	rb.operation.Security = openapi3.NewSecurityRequirements().
		With(openapi3.NewSecurityRequirement().Authenticate(BearerScheme))
	return rb
}

func (rb *RouteBuilder) Build() {
	rb.openapi.addOperation(rb.method, rb.path, rb.operation)
}
