package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/services"
)

const maxAuditBody = 2000

// Keys whose values never reach system_logs.
var redactedKeys = map[string]bool{
	"password":      true,
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"token":         true,
	"secret":        true,
}

// AuditLog writes one system_logs row per state-changing request, at a level
// that follows the response status.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWrite(c.Request.Method) {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), c.Request.Method)

		var uid *uint
		if id := GetUserID(c); id != 0 {
			uid = &id
		}

		write := services.LogInfo
		switch {
		case status >= http.StatusInternalServerError:
			write = services.LogError
		case status >= http.StatusBadRequest:
			write = services.LogWarning
		}
		write(module, action, formatAuditMessage(GetEmail(c), c.Request.Method, c.Request.URL.Path, status),
			uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   redactBody(body),
			})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// parseRouteInfo names the audit module after the first path segment under
// /api and the action after the method: "/api/user-projects/:id" with PATCH
// gives "User Projects", "Update".
func parseRouteInfo(fullPath, method string) (module, action string) {
	segment, _, _ := strings.Cut(strings.TrimPrefix(fullPath, "/api/"), "/")
	if segment == "" {
		segment = "unknown"
	}
	words := strings.Fields(strings.ReplaceAll(segment, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	module = strings.Join(words, " ")

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

func formatAuditMessage(email, method, path string, status int) string {
	if email == "" {
		email = "anonymous"
	}
	outcome := "Failed"
	if status >= 200 && status < 300 {
		outcome = "OK"
	}
	return fmt.Sprintf("[Audit] %s %s %s -> %s", email, method, path, outcome)
}

// redactBody re-encodes a JSON object body with credential values replaced.
// Bodies that are not JSON objects are dropped rather than stored raw.
func redactBody(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return "[unparsed body omitted]"
	}
	redactFields(fields)
	out, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	if len(out) > maxAuditBody {
		return string(out[:maxAuditBody]) + "...[truncated]"
	}
	return string(out)
}

func redactFields(fields map[string]interface{}) {
	for k, v := range fields {
		if redactedKeys[strings.ToLower(k)] {
			fields[k] = "***"
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			redactFields(nested)
		}
	}
}
