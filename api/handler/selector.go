package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidopen/control"
	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/resolver"
	"github.com/use-agent/vidopen/store"
	"github.com/use-agent/vidopen/webhook"
)

func selectorResponse(xpath string, saved bool) models.SelectorResponse {
	resp := models.SelectorResponse{Saved: saved, Label: control.LabelUnset}
	if saved {
		resp.XPath = xpath
		resp.Label = control.LabelSaved
	}
	return resp
}

func storeError(err error) error {
	return models.NewError(models.ErrCodeStore, "selector store unavailable", err)
}

// GetSelector returns a handler for GET /api/v1/selector.
func GetSelector(sel *store.SelectorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		xpath, ok, err := sel.Get(c.Request.Context())
		if err != nil {
			respondSelectorError(c, storeError(err))
			return
		}
		c.JSON(http.StatusOK, selectorResponse(xpath, ok))
	}
}

// PutSelector returns a handler for PUT /api/v1/selector.
//
// The value is stored as given. An empty xpath unsets the selector; syntax
// errors only surface when the selector is next resolved.
func PutSelector(sel *store.SelectorStore, hooks *webhook.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SelectorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondSelectorError(c, models.NewError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		if err := sel.Set(c.Request.Context(), req.XPath); err != nil {
			respondSelectorError(c, storeError(err))
			return
		}

		if req.XPath == "" {
			hooks.Emit(webhook.EventSelectorCleared, nil)
		} else {
			hooks.Emit(webhook.EventSelectorUpdated, map[string]string{"xpath": req.XPath})
		}
		resp := selectorResponse(req.XPath, req.XPath != "")
		if req.XPath != "" {
			if err := resolver.Validate(req.XPath); err != nil {
				resp.Warning = err.Error()
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// DeleteSelector returns a handler for DELETE /api/v1/selector. Clearing an
// unset selector still succeeds.
func DeleteSelector(sel *store.SelectorStore, hooks *webhook.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sel.Clear(c.Request.Context()); err != nil {
			respondSelectorError(c, storeError(err))
			return
		}
		hooks.Emit(webhook.EventSelectorCleared, nil)

		resp := selectorResponse("", false)
		resp.Message = control.ClearedNotif
		c.JSON(http.StatusOK, resp)
	}
}
