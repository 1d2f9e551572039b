package openapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// AuthMode says whether a route needs credentials
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthOptional
	AuthRequired
)

// Security scheme names used in generated documents
const (
	BearerScheme = "bearerAuth"
	CookieScheme = "cookieAuth"
)

const jsonContentType = "application/json"

type RouteDocs struct {
	Summary     string
	Description string
	Tags        []string
	Auth        AuthMode
	QueryParams []Parameter

	// RequestBody is a struct whose schema documents the body
	RequestBody        interface{}
	RequestContentType string

	Responses map[int]ResponseDoc
}

type ResponseDoc struct {
	Description string
	Model       interface{} // Struct for response schema
	Example     interface{} // Example value
	ContentType string      // defaults to application/json
}

type Generator struct {
	engine          *gin.Engine
	info            Info
	servers         []Server
	tags            []Tag
	securitySchemes map[string]*SecurityScheme

	mu        sync.RWMutex
	routeDocs map[string]RouteDocs
}

func NewGenerator(engine *gin.Engine, info Info, servers []Server, tags []Tag) *Generator {
	return &Generator{
		engine:          engine,
		info:            info,
		servers:         servers,
		tags:            tags,
		securitySchemes: make(map[string]*SecurityScheme),
		routeDocs:       make(map[string]RouteDocs),
	}
}

// WithBearerAuth documents Authorization: Bearer credentials
func (g *Generator) WithBearerAuth(description string) *Generator {
	g.securitySchemes[BearerScheme] = &SecurityScheme{
		Type:        "http",
		Scheme:      "bearer",
		Description: description,
	}
	return g
}

// WithCookieAuth documents a session cookie
func (g *Generator) WithCookieAuth(cookieName, description string) *Generator {
	g.securitySchemes[CookieScheme] = &SecurityScheme{
		Type:        "apiKey",
		In:          "cookie",
		Name:        cookieName,
		Description: description,
	}
	return g
}

// RegisterDocs registers documentation for a specific route
// method: GET, POST, etc.
// path: /api/v1/setups/:id
func (g *Generator) RegisterDocs(method, path string, docs RouteDocs) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routeDocs[method+" "+path] = docs
}

func (g *Generator) Generate() *OpenAPI {
	spec := &OpenAPI{
		OpenAPI: "3.0.3",
		Info:    g.info,
		Servers: g.servers,
		Tags:    g.tags,
		Paths:   make(map[string]*PathItem),
		Components: Components{
			SecuritySchemes: g.securitySchemes,
		},
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, route := range g.engine.Routes() {
		openAPIPath := convertPath(route.Path)

		pathItem, exists := spec.Paths[openAPIPath]
		if !exists {
			pathItem = &PathItem{}
			spec.Paths[openAPIPath] = pathItem
		}

		operation := &Operation{
			Summary:     route.Handler,
			OperationID: operationID(route.Method, route.Path),
			Parameters:  extractPathParams(route.Path),
			Responses:   make(map[string]Response),
		}

		if docs, ok := g.routeDocs[route.Method+" "+route.Path]; ok {
			g.applyDocs(operation, docs)
		}

		if len(operation.Responses) == 0 {
			operation.Responses["200"] = Response{
				Description: "Successful response",
			}
		}

		switch route.Method {
		case http.MethodGet:
			pathItem.Get = operation
		case http.MethodPost:
			pathItem.Post = operation
		case http.MethodPut:
			pathItem.Put = operation
		case http.MethodDelete:
			pathItem.Delete = operation
		case http.MethodPatch:
			pathItem.Patch = operation
		case http.MethodHead:
			pathItem.Head = operation
		}
	}

	return spec
}

func (g *Generator) applyDocs(op *Operation, docs RouteDocs) {
	if docs.Summary != "" {
		op.Summary = docs.Summary
	}
	op.Description = docs.Description
	op.Tags = docs.Tags
	op.Parameters = append(op.Parameters, docs.QueryParams...)
	op.Security = g.security(docs.Auth)

	if docs.RequestBody != nil {
		contentType := docs.RequestContentType
		if contentType == "" {
			contentType = jsonContentType
		}
		op.RequestBody = &RequestBody{
			Content: map[string]MediaType{
				contentType: {Schema: GenerateSchema(docs.RequestBody)},
			},
			Required: true,
		}
	}

	for status, respDoc := range docs.Responses {
		resp := Response{Description: respDoc.Description}

		if respDoc.Model != nil || respDoc.Example != nil {
			contentType := respDoc.ContentType
			if contentType == "" {
				contentType = jsonContentType
			}
			schema := GenerateSchema(respDoc.Model)
			if schema == nil {
				schema = &Schema{}
			}
			schema.Example = respDoc.Example
			resp.Content = map[string]MediaType{contentType: {Schema: schema}}
		}

		op.Responses[strconv.Itoa(status)] = resp
	}
}

// security lists the accepted schemes. An optional route also accepts no
// credentials, written as an empty requirement.
func (g *Generator) security(mode AuthMode) []SecurityRequirement {
	if mode == AuthNone || len(g.securitySchemes) == 0 {
		return nil
	}

	var reqs []SecurityRequirement
	for _, name := range []string{BearerScheme, CookieScheme} {
		if _, ok := g.securitySchemes[name]; ok {
			reqs = append(reqs, SecurityRequirement{name: {}})
		}
	}
	if mode == AuthOptional {
		reqs = append(reqs, SecurityRequirement{})
	}
	return reqs
}

// QueryParam documents a string query parameter
func QueryParam(name, description string, enum ...string) Parameter {
	return Parameter{
		Name:        name,
		In:          "query",
		Description: description,
		Schema:      &Schema{Type: "string", Enum: enum},
	}
}

// IntQueryParam documents a bounded integer query parameter. A hi below lo
// leaves the parameter unbounded above.
func IntQueryParam(name, description string, lo, hi float64) Parameter {
	schema := &Schema{Type: "integer", Minimum: &lo}
	if hi >= lo {
		schema.Maximum = &hi
	}
	return Parameter{
		Name:        name,
		In:          "query",
		Description: description,
		Schema:      schema,
	}
}

func convertPath(ginPath string) string {
	parts := strings.Split(ginPath, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			parts[i] = "{" + part[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

func extractPathParams(ginPath string) []Parameter {
	var params []Parameter
	for _, part := range strings.Split(ginPath, "/") {
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			params = append(params, Parameter{
				Name:     part[1:],
				In:       "path",
				Required: true,
				Schema:   &Schema{Type: "string"},
			})
		}
	}
	return params
}

// operationID derives a stable id from the route, e.g.
// "POST /api/v1/setups/:id/star" becomes "post_setups_id_star"
func operationID(method, path string) string {
	path = strings.TrimPrefix(path, "/api/v1")
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, part := range strings.Split(path, "/") {
		part = strings.TrimLeft(part, ":*")
		if part == "" {
			continue
		}
		b.WriteByte('_')
		b.WriteString(strings.ReplaceAll(part, ".", "_"))
	}
	return b.String()
}
