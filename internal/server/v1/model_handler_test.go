package v1_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/internal/modeldata"
	v1 "github.com/poolchaos/personalfit-api/internal/server/v1"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

func modelEngine() *gin.Engine {
	h := v1.NewModelHandler(modeldata.NewCatalog("", zap.NewNop()))
	return newEngine(func(r *gin.Engine) {
		r.GET("/models", h.List)
		r.GET("/models/:id", h.Get)
	})
}

func TestListModels_ReturnsCatalog(t *testing.T) {
	engine := modelEngine()

	w := getJSON(t, engine, "/models")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.ListResponse[api.ModelResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Items)

	ids := make(map[string]api.ModelResponse, len(resp.Items))
	for _, m := range resp.Items {
		ids[m.ID] = m
	}
	gpt, ok := ids["gpt-4o"]
	require.True(t, ok)
	assert.Equal(t, 128000, gpt.ContextLimit)
	assert.InDelta(t, 0.005, gpt.InputPricePer1K, 1e-9)
}

func TestGetModel_KnownID(t *testing.T) {
	engine := modelEngine()

	w := getJSON(t, engine, "/models/gpt-4o")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.ModelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "gpt-4o", resp.ID)
	assert.Equal(t, "o200k_base", resp.Encoding)
}

func TestGetModel_UnknownIs404(t *testing.T) {
	engine := modelEngine()

	// Lookup would fuzzy-resolve this; the endpoint must not.
	w := getJSON(t, engine, "/models/gpt-4o-2024-08-06")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
