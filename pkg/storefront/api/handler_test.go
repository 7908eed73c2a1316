package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/mail"
	mediamemory "github.com/tendant/simple-storefront/pkg/storefront/media/memory"
	"github.com/tendant/simple-storefront/pkg/storefront/repo/memory"
)

type testEnv struct {
	router  http.Handler
	catalog *storefront.CatalogService
	content *storefront.ContentService
	media   *mediamemory.Backend
	mailer  *mail.Recorder
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	return setupHandlerTestWithMedia(t, "http://shop.test/media", "")
}

func setupHandlerTestWithMedia(t *testing.T, urlPrefix, mediaPath string) *testEnv {
	t.Helper()

	repo := memory.New()
	media := mediamemory.New(urlPrefix)
	mailer := mail.NewRecorder()

	opts := []storefront.Option{
		storefront.WithRepository(repo),
		storefront.WithMediaStore(media),
		storefront.WithMailer(mailer),
		storefront.WithBcryptCost(bcrypt.MinCost),
		storefront.WithContactConfig(storefront.ContactConfig{
			Sender:     "shop@shop.test",
			Recipients: []string{"owner@shop.test"},
		}),
	}

	catalog, err := storefront.NewCatalogService(opts...)
	require.NoError(t, err)
	content, err := storefront.NewContentService(opts...)
	require.NoError(t, err)
	admin, err := storefront.NewAdminService(opts...)
	require.NoError(t, err)
	contact, err := storefront.NewContactService(opts...)
	require.NoError(t, err)
	siteIndex, err := storefront.NewSiteIndexBuilder(opts...)
	require.NoError(t, err)

	_, err = admin.BootstrapAdmin(context.Background(), "admin", "secret")
	require.NoError(t, err)

	h, err := New(Config{
		Catalog:       catalog,
		Content:       content,
		Admin:         admin,
		Contact:       contact,
		SiteIndex:     siteIndex,
		Media:         media,
		MediaPath:     mediaPath,
		BaseURL:       "https://shop.test/",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	})
	require.NoError(t, err)

	return &testEnv{router: h.Routes(), catalog: catalog, content: content, media: media, mailer: mailer}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, target string, values map[string]string, filename string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeFlash(t *testing.T, w *httptest.ResponseRecorder) Flash {
	t.Helper()
	var f Flash
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	return f
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(formRequest(http.MethodPost, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"secret"},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func seedProduct(t *testing.T, e *testEnv, name string) *storefront.Product {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), storefront.ProductFields{Name: name, Price: "10"}, nil)
	require.NoError(t, err)
	return p
}

func TestHandler_Home(t *testing.T) {
	env := setupHandlerTest(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		seedProduct(t, env, name)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 4)
	assert.Equal(t, "a", resp.Products[0].Name)
	assert.Equal(t, "d", resp.Products[3].Name)
	assert.Empty(t, resp.BlogPosts)
}

func TestHandler_GetProduct_Errors(t *testing.T) {
	env := setupHandlerTest(t)

	t.Run("InvalidID", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodGet, "/product/not-an-id", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f := decodeFlash(t, w)
		assert.Equal(t, "/products", f.Redirect)
		assert.Equal(t, "Invalid product.", f.Message)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodGet, "/product/"+storefront.NewID(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "/products", decodeFlash(t, w).Redirect)
	})
}

func TestHandler_AddReview(t *testing.T) {
	env := setupHandlerTest(t)
	p := seedProduct(t, env, "Shoe")

	w := env.do(formRequest(http.MethodPost, "/product/"+p.ID+"/add_review", url.Values{
		"reviewer_name": {"Ana"},
		"rating":        {"9"},
		"comment":       {"great"},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "/product/"+p.ID, decodeFlash(t, w).Redirect)

	for _, rating := range []string{"4", "5"} {
		w = env.do(formRequest(http.MethodPost, "/product/"+p.ID+"/add_review", url.Values{
			"reviewer_name": {"Ana"},
			"rating":        {rating},
			"comment":       {"great"},
		}))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/product/"+p.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var detail storefront.ProductDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, 2, detail.ReviewCount)
	assert.InDelta(t, 4.5, detail.AverageRating, 0.0001)
}

func TestHandler_AdminRequiresSession(t *testing.T) {
	env := setupHandlerTest(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/admin/login", decodeFlash(t, w).Redirect)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "garbage"})
	w = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Login(t *testing.T) {
	env := setupHandlerTest(t)

	w := env.do(formRequest(http.MethodPost, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var dash DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, "admin", dash.Username)
	assert.Equal(t, int64(0), dash.TotalProducts)
}

func TestHandler_LogoutRevokesToken(t *testing.T) {
	env := setupHandlerTest(t)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(cookie)
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/admin/login", decodeFlash(t, w).Redirect)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie is cleared")

	// A copy of the old cookie no longer opens the back office.
	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	w = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	fresh := env.login(t)
	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(fresh)
	assert.Equal(t, http.StatusOK, env.do(req).Code)
}

func TestHandler_AdminProductLifecycle(t *testing.T) {
	env := setupHandlerTest(t)
	cookie := env.login(t)

	req := multipartRequest(t, "/admin/products/add", map[string]string{
		"name":     "Lamp",
		"price":    "19.90",
		"category": "home",
	}, "lamp.png", []byte("fake-png"))
	req.AddCookie(cookie)
	w := env.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data storefront.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	product := created.Data
	require.NotEmpty(t, product.ImageURL)
	assert.Equal(t, "19.9", product.Price.String())
	assert.Equal(t, 1, env.media.Len())

	// the uploaded image is served back
	name := product.ImageURL[strings.LastIndex(product.ImageURL, "/")+1:]
	w = env.do(httptest.NewRequest(http.MethodGet, "/media/"+name, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, "fake-png", string(body))

	// replace the image
	req = multipartRequest(t, "/admin/products/edit/"+product.ID, map[string]string{
		"name":  "Lamp XL",
		"price": "25",
	}, "lamp2.png", []byte("other"))
	req.AddCookie(cookie)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, env.media.Len())
	assert.False(t, env.media.Has(storefront.ImageIdentifier(product.ImageURL)))

	// validation failure leaves the record alone
	req = formRequest(http.MethodPost, "/admin/products/edit/"+product.ID, url.Values{"name": {"x"}, "price": {"abc"}})
	req.AddCookie(cookie)
	w = env.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	got, err := env.catalog.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp XL", got.Name)

	req = httptest.NewRequest(http.MethodPost, "/admin/products/delete/"+product.ID, nil)
	req.AddCookie(cookie)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.media.Len())

	req = httptest.NewRequest(http.MethodPost, "/admin/products/delete/"+product.ID, nil)
	req.AddCookie(cookie)
	w = env.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/admin/products", decodeFlash(t, w).Redirect)
}

func TestHandler_AdminCreatePost_DefaultsAuthor(t *testing.T) {
	env := setupHandlerTest(t)
	cookie := env.login(t)

	req := formRequest(http.MethodPost, "/admin/blog/add", url.Values{
		"title":   {"Hello"},
		"content": {"World"},
	})
	req.AddCookie(cookie)
	w := env.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data storefront.BlogPost `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "admin", created.Data.Author)

	w = env.do(httptest.NewRequest(http.MethodGet, "/blog/"+created.Data.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Contact(t *testing.T) {
	env := setupHandlerTest(t)

	values := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "message": {"Hi"}}
	w := env.do(formRequest(http.MethodPost, "/contact", values))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.mailer.Sent(), 1)
	assert.Contains(t, env.mailer.Sent()[0].Body, "ana@example.com")

	env.mailer.FailWith(errors.New("relay down"))
	w = env.do(formRequest(http.MethodPost, "/contact", values))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.do(formRequest(http.MethodPost, "/contact", url.Values{"name": {"Ana"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Search(t *testing.T) {
	env := setupHandlerTest(t)
	seedProduct(t, env, "Red Shoe")
	seedProduct(t, env, "Blue Hat")

	w := env.do(httptest.NewRequest(http.MethodGet, "/search?query=shoe", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var results storefront.SearchResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results.Products, 1)
	assert.Equal(t, "Red Shoe", results.Products[0].Name)
	assert.Empty(t, results.Posts)

	w = env.do(httptest.NewRequest(http.MethodGet, "/search?query=+", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Empty(t, results.Products)
}

func TestHandler_SitemapAndRobots(t *testing.T) {
	env := setupHandlerTest(t)
	p := seedProduct(t, env, "Shoe")

	w := env.do(httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<loc>https://shop.test/product/"+p.ID+"</loc>")
	assert.Equal(t, len(storefront.DefaultStaticRoutes())+1, strings.Count(w.Body.String(), "<url>"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sitemap: https://shop.test/sitemap.xml")
}

func TestHandler_MediaServedAtConfiguredPath(t *testing.T) {
	env := setupHandlerTestWithMedia(t, "http://shop.test/static/uploads/", "/static/uploads/")

	product, err := env.catalog.CreateProduct(context.Background(),
		storefront.ProductFields{Name: "Eclair", Price: "3.50"},
		&storefront.ImageUpload{Filename: "eclair.png", ContentType: "image/png", Reader: bytes.NewReader([]byte("eclair"))},
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(product.ImageURL, "http://shop.test/static/uploads/"))

	name := product.ImageURL[strings.LastIndex(product.ImageURL, "/")+1:]
	w := env.do(httptest.NewRequest(http.MethodGet, "/static/uploads/"+name, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "eclair", w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodGet, "/media/"+name, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
