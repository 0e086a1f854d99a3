package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

type ModelHandler struct {
	catalog *modeldata.Catalog
}

func NewModelHandler(catalog *modeldata.Catalog) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

// List returns every model in the catalog, sorted by id.
//
// GET /models
func (h *ModelHandler) List(c *gin.Context) {
	models := h.catalog.List()

	items := make([]api.ModelResponse, 0, len(models))
	for _, m := range models {
		items = append(items, modelResponse(m))
	}

	c.JSON(http.StatusOK, api.ListResponse[api.ModelResponse]{
		Items: items,
		Total: len(items),
		Limit: len(items),
	})
}

// Get returns one catalog entry. Unlike Lookup's fuzzy resolution this
// is exact: asking about a model the catalog does not know is a 404.
//
// GET /models/:id
func (h *ModelHandler) Get(c *gin.Context) {
	id := c.Param("id")

	if !h.catalog.Has(id) {
		_ = c.Error(api.NotFoundError("Unknown model: " + id))
		return
	}

	c.JSON(http.StatusOK, modelResponse(h.catalog.Lookup(id)))
}

func modelResponse(m modeldata.ModelConfig) api.ModelResponse {
	return api.ModelResponse{
		ID:               m.ID,
		ContextLimit:     m.ContextLimit,
		MaxOutputTokens:  m.MaxOutputTokens,
		InputPricePer1K:  m.InputPricePer1K,
		OutputPricePer1K: m.OutputPricePer1K,
		Encoding:         m.Encoding,
		Provider:         m.Provider,
	}
}
