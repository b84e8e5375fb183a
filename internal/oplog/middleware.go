package oplog

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
)

// ResourceIDKey lets a handler name the resource it created.
const ResourceIDKey = "oplogResourceId"

// actions are trailing route segments recorded as the operation type.
var actions = map[string]bool{
	"seal":    true,
	"cancel":  true,
	"recheck": true,
	"import":  true,
	"reset":   true,
	"scan":    true,
	"compare": true,
	"role":    true,
}

// Recorder audits every successful write under the API prefix.
func Recorder(svc *Service, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		op := methodOperation(c.Request.Method)
		route := c.FullPath()
		if op == "" || route == "" || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		if strings.HasPrefix(route, prefix+"/auth/") {
			return
		}
		verb, resource := describe(strings.TrimPrefix(route, prefix))
		if verb != "" {
			op = verb
		}
		resourceID := c.GetString(ResourceIDKey)
		if resourceID == "" {
			resourceID = c.Param("id")
		}
		svc.Record(c.Request.Context(), Entry{
			CompanyID:     middleware.CompanyIDFromContext(c),
			UserID:        middleware.UserIDFromContext(c),
			UserName:      middleware.UserNameFromContext(c),
			OperationType: op,
			ResourceType:  resource,
			ResourceID:    resourceID,
			Content:       c.Request.Method + " " + c.Request.URL.Path,
			IPAddress:     c.ClientIP(),
		})
	}
}

func methodOperation(method string) string {
	switch method {
	case http.MethodPost:
		return OpCreate
	case http.MethodPut, http.MethodPatch:
		return OpUpdate
	case http.MethodDelete:
		return OpDelete
	}
	return ""
}

// describe splits a route such as /projects/:id/seal into the action verb
// ("seal") and the resource it applies to ("projects").
func describe(route string) (verb, resource string) {
	var static []string
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		if seg == "" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") || seg == "admin" {
			continue
		}
		static = append(static, seg)
	}
	if len(static) == 0 {
		return "", ""
	}
	last := static[len(static)-1]
	if actions[last] && len(static) > 1 {
		return last, static[len(static)-2]
	}
	return "", last
}
