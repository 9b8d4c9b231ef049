package api

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"animeshop-be/internal/apperr"
	"animeshop-be/internal/logger"
	"animeshop-be/internal/product"
	"animeshop-be/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const imageField = "image"

var (
	errInvalidForm   = apperr.Validation("Invalid product form")
	errInvalidNumber = apperr.Validation("Invalid number")
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, products)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, categories)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseProductForm(w, r)
	if err != nil {
		transport.Error(w, r, err)
		return
	}

	in := product.CreateInput{
		Name:        form.get("name"),
		Subtitle:    form.get("subtitle"),
		Description: form.get("description"),
		Category:    form.get("category"),
		Subcategory: form.get("subcategory"),
		Sizes:       form.list("sizes"),
	}
	if in.Price, err = form.float("price"); err != nil {
		transport.Error(w, r, err)
		return
	}
	if in.InStock, err = form.optBool("inStock"); err != nil {
		transport.Error(w, r, err)
		return
	}
	if in.Rating, err = form.optFloat("rating"); err != nil {
		transport.Error(w, r, err)
		return
	}

	if err := product.ValidateDetails(in); err != nil {
		transport.Error(w, r, err)
		return
	}

	if in.Image, err = h.saveUpload(r, form); err != nil {
		transport.Error(w, r, err)
		return
	}

	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		h.discardUpload(r, in.Image)
		transport.Error(w, r, err)
		return
	}
	transport.Created(w, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseProductForm(w, r)
	if err != nil {
		transport.Error(w, r, err)
		return
	}

	in := product.UpdateInput{
		Name:        form.opt("name"),
		Subtitle:    form.opt("subtitle"),
		Description: form.opt("description"),
		Category:    form.opt("category"),
		Subcategory: form.opt("subcategory"),
	}
	if form.has("sizes") {
		in.Sizes = form.list("sizes")
		if in.Sizes == nil {
			in.Sizes = []string{}
		}
	}

	if in.Price, err = form.optFloat("price"); err != nil {
		transport.Error(w, r, err)
		return
	}
	if in.InStock, err = form.optBool("inStock"); err != nil {
		transport.Error(w, r, err)
		return
	}
	if in.Rating, err = form.optFloat("rating"); err != nil {
		transport.Error(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := product.ParseID(id); err != nil {
		transport.Error(w, r, err)
		return
	}
	if err := product.ValidateUpdate(in); err != nil {
		transport.Error(w, r, err)
		return
	}

	// A new upload wins; otherwise imageUrl carries the current reference.
	uploaded := ""
	image, err := h.saveUpload(r, form)
	switch {
	case err == nil:
		uploaded = image
		in.Image = &image
	case errors.Is(err, product.ErrImageRequired):
		if current := form.get("imageUrl"); current != "" {
			in.Image = &current
		}
	default:
		transport.Error(w, r, err)
		return
	}

	p, err := h.products.Update(r.Context(), id, in)
	if err != nil {
		if uploaded != "" {
			h.discardUpload(r, uploaded)
		}
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.Message(w, http.StatusOK, "Product removed")
}

// saveUpload stores the "image" file part and returns its reference.
// It returns product.ErrImageRequired when no file was sent.
func (h *Handler) saveUpload(r *http.Request, form productForm) (string, error) {
	fh := form.file(imageField)
	if fh == nil {
		return "", product.ErrImageRequired
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(errInvalidForm, err)
	}
	defer f.Close()

	ref, err := h.images.Save(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to store product image",
			zap.String("filename", fh.Filename),
			zap.Error(err),
		)
		return "", apperr.Store("store image", err)
	}
	return ref, nil
}

// discardUpload removes an image stored for a request that then failed.
func (h *Handler) discardUpload(r *http.Request, ref string) {
	if err := h.images.Delete(r.Context(), ref); err != nil {
		logger.FromCtx(r.Context()).Warn("failed to discard product image",
			zap.String("image", ref),
			zap.Error(err),
		)
	}
}

// productForm reads multipart or urlencoded product fields.
type productForm struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

func (h *Handler) parseProductForm(w http.ResponseWriter, r *http.Request) (productForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return productForm{}, apperr.Wrap(errInvalidForm, err)
		}
		return productForm{values: r.MultipartForm.Value, files: r.MultipartForm.File}, nil
	}

	if err := r.ParseForm(); err != nil {
		return productForm{}, apperr.Wrap(errInvalidForm, err)
	}
	return productForm{values: r.PostForm}, nil
}

func (f productForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f productForm) get(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (f productForm) opt(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.get(key)
	return &v
}

func (f productForm) file(key string) *multipart.FileHeader {
	if fhs := f.files[key]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

// list accepts repeated fields, a JSON array or a comma separated string.
func (f productForm) list(key string) []string {
	raw := f.values[key]
	if len(raw) == 0 {
		return nil
	}
	if len(raw) == 1 {
		s := strings.TrimSpace(raw[0])
		var arr []string
		if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &arr) == nil {
			raw = arr
		} else {
			raw = strings.Split(s, ",")
		}
	}

	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f productForm) float(key string) (float64, error) {
	v, err := f.optFloat(key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, apperr.Withf(errInvalidNumber, "%s is required", key)
	}
	return *v, nil
}

func (f productForm) optFloat(key string) (*float64, error) {
	s := f.get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.Withf(errInvalidNumber, "%s must be a number", key)
	}
	return &n, nil
}

func (f productForm) optBool(key string) (*bool, error) {
	s := f.get(key)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, apperr.Withf(errInvalidNumber, "%s must be true or false", key)
	}
	return &b, nil
}
