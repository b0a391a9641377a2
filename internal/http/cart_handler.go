package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
	"github.com/stevnathans/hustlecare-sub000/internal/catalog"
	"github.com/stevnathans/hustlecare-sub000/internal/export"
	"github.com/stevnathans/hustlecare-sub000/internal/grouping"
	"github.com/stevnathans/hustlecare-sub000/internal/snapshot"
)

// SharePublisher emits the ListShared event after a snapshot is saved.
type SharePublisher interface {
	PublishListShared(ctx context.Context, list *snapshot.SharedList) error
}

// ProductResolver looks up catalog products when an add request carries only
// a product id.
type ProductResolver interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type ListHandler struct {
	store     cart.Store
	repo      snapshot.Repository
	publisher SharePublisher
	resolver  ProductResolver
	renderer  *export.Renderer

	publicBaseURL string
	timeout       time.Duration
	logger        *log.Logger
}

func NewListHandler(store cart.Store, repo snapshot.Repository, publisher SharePublisher, resolver ProductResolver, publicBaseURL string, timeout time.Duration, logger *log.Logger) *ListHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ListHandler{
		store:         store,
		repo:          repo,
		publisher:     publisher,
		resolver:      resolver,
		renderer:      export.NewRenderer(),
		publicBaseURL: publicBaseURL,
		timeout:       timeout,
		logger:        logger,
	}
}

// cartView is the aggregated read model: the flat items plus the derived
// grouping and totals, recomputed on every read.
type cartView struct {
	BusinessID   string                   `json:"businessId,omitempty"`
	BusinessName string                   `json:"businessName,omitempty"`
	Items        []cart.LineItem          `json:"items"`
	Groups       []grouping.CategoryGroup `json:"groups"`
	TotalCost    float64                  `json:"totalCost"`
	TotalItems   int                      `json:"totalItems"`
}

func newCartView(c *cart.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartView{
		BusinessID:   c.BusinessID,
		BusinessName: c.BusinessName,
		Items:        items,
		Groups:       grouping.Group(items),
		TotalCost:    cart.TotalCost(items),
		TotalItems:   cart.TotalItems(items),
	}
}

func (h *ListHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.store.GetCart(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	writeJSON(w, http.StatusOK, newCartView(c))
}

func (h *ListHandler) SetBusiness(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	var body struct {
		BusinessID   string `json:"businessId"`
		BusinessName string `json:"businessName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.SetBusiness(ctx, sessionID, body.BusinessID, body.BusinessName); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(ctx, w, sessionID)
}

func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	var body struct {
		ProductID       int64   `json:"productId"`
		Name            string  `json:"name"`
		Price           float64 `json:"price"`
		Image           string  `json:"image"`
		Category        string  `json:"category"`
		RequirementName string  `json:"requirementName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	if body.Price < 0 {
		writeError(w, http.StatusBadRequest, "negative price")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item := cart.LineItem{
		ProductID:       body.ProductID,
		Name:            body.Name,
		Price:           body.Price,
		Image:           body.Image,
		Category:        body.Category,
		RequirementName: body.RequirementName,
	}

	// Requests may carry just the product id; resolve the rest from the
	// catalog. The requirement association always comes from the caller.
	if item.Name == "" {
		if h.resolver == nil {
			writeError(w, http.StatusBadRequest, "missing product name")
			return
		}
		p, err := h.resolver.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				writeError(w, http.StatusNotFound, "product not found")
				return
			}
			writeError(w, http.StatusBadGateway, "failed to resolve product")
			return
		}
		item.Name = p.Name
		item.Price = p.Price
		item.Image = p.Image
		item.Category = p.Category
	}

	if err := h.store.AddItem(ctx, sessionID, item); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(ctx, w, sessionID)
}

func (h *ListHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	productID, ok := parseProductID(w, r)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}
	if !ok {
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.SetQuantity(ctx, sessionID, productID, body.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(ctx, w, sessionID)
}

func (h *ListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	productID, ok := parseProductID(w, r)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.RemoveItem(ctx, sessionID, productID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(ctx, w, sessionID)
}

func (h *ListHandler) ClearCategory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	category := chi.URLParam(r, "category")
	if sessionID == "" || category == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId or category")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.ClearCategory(ctx, sessionID, category); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(ctx, w, sessionID)
}

func (h *ListHandler) ClearRequirement(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	requirement := r.URL.Query().Get("requirement")
	category := r.URL.Query().Get("category")
	if sessionID == "" || requirement == "" || category == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId, requirement or category")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.ClearRequirement(ctx, sessionID, requirement, category); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.respondWithCart(ctx, w, sessionID)
}

func (h *ListHandler) Share(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.store.GetCart(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if len(c.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "cannot save an empty list")
		return
	}

	list := &snapshot.SharedList{
		Name:         snapshot.ResolveName(body.Name, c.BusinessName),
		BusinessName: c.BusinessName,
		Items:        c.Items,
		TotalCost:    cart.TotalCost(c.Items),
	}

	if err := h.repo.Save(ctx, list); err != nil {
		h.logger.Printf("save shared list: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   "failed to save list",
		})
		return
	}

	// The snapshot is durable at this point; a publish failure must not fail
	// the share.
	if h.publisher != nil {
		if err := h.publisher.PublishListShared(ctx, list); err != nil {
			h.logger.Printf("publish ListShared: %v", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"listId":   list.ID,
		"shareUrl": h.shareURL(list.ID),
	})
}

func (h *ListHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.store.GetCart(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if len(c.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "cannot export an empty list")
		return
	}

	name := c.BusinessName
	if name == "" {
		name = "Startup list"
	}
	h.servePDF(w, export.Document{
		Name:         name,
		BusinessName: c.BusinessName,
		GeneratedAt:  time.Now(),
		Items:        c.Items,
		Groups:       grouping.Group(c.Items),
	})
}

func (h *ListHandler) respondWithCart(ctx context.Context, w http.ResponseWriter, sessionID string) {
	c, err := h.store.GetCart(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, newCartView(c))
}

// servePDF renders to memory first so a generation failure never leaks a
// partial file to the client.
func (h *ListHandler) servePDF(w http.ResponseWriter, doc export.Document) {
	data, err := h.renderer.Render(doc)
	if err != nil {
		h.logger.Printf("render pdf: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate document")
		return
	}

	filename := export.Filename(doc.Name, doc.GeneratedAt)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ListHandler) shareURL(listID string) string {
	return h.publicBaseURL + "/shared/" + listID
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid productId")
		return 0, false
	}
	return id, true
}
