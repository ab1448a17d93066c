package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"memorial/internal/domain/models"
	"memorial/internal/lib/retry"
	"memorial/internal/repository"
	"memorial/internal/services/auth"
	media "memorial/internal/services/media_service"
	slideshow "memorial/internal/services/slideshow_service"
	syncsvc "memorial/internal/services/sync_service"
	tributes "memorial/internal/services/tribute_service"
	"memorial/internal/storage/memstore"
	httprouters "memorial/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type RoutersTestSuite struct {
	suite.Suite
	store  *memstore.Store
	echo   *echo.Echo
	server *httptest.Server
}

func (s *RoutersTestSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = memstore.New("https://cdn.test")

	syncService := syncsvc.NewSyncService(log, s.store)
	mediaService := media.NewMediaService(log, s.store, syncService, retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}, time.Minute)
	tributeRepo := repository.NewObjectTributeRepo(s.store)
	tributeService := tributes.NewTributeService(log, tributeRepo)
	slideshowService := slideshow.NewSlideshowService(log, mediaService, tributeRepo, repository.NewMemorySlideshowCache(time.Hour, time.Hour), "")
	mediaService.WithSlideshowInvalidator(slideshowService)

	hash, err := auth.HashPassword("memorial-pass")
	s.Require().NoError(err)
	accounts := repository.NewAccountRepo([]models.Account{
		{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin, PasswordHash: hash},
	})
	authService := auth.New(log, accounts, "jwt-secret", time.Hour)

	r := httprouters.NewRouter(log, mediaService, syncService, slideshowService, tributeService, authService)

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("session-secret"))))

	e.GET("/api/health", r.Health)
	e.POST("/api/login", r.Login)
	e.POST("/api/logout", r.Logout)
	e.GET("/api/session", r.Session)
	e.POST("/api/upload", r.UploadMedia)
	e.GET("/api/files/:userId", r.ListFiles)
	e.DELETE("/api/files/:userId/*", r.DeleteFile)
	e.GET("/api/captions/:userId", r.GetCaptions)
	e.PUT("/api/captions/:userId", r.UpdateCaptions)
	e.GET("/api/deleted/:userId", r.GetDeleted)
	e.GET("/api/slideshow/:userId", r.CompileSlideshow)
	e.GET("/api/slideshow/:userId/cached", r.CachedSlideshow)
	e.GET("/api/slideshow/:userId/stats", r.SlideshowStats)
	e.GET("/api/tributes", r.ListTributes)
	e.POST("/api/tributes", r.AddTribute)
	e.GET("/api/timeline", r.ListTimeline)

	s.echo = e
	s.server = httptest.NewServer(e)
}

func (s *RoutersTestSuite) TearDownTest() {
	s.server.Close()
}

func TestRoutersTestSuite(t *testing.T) {
	suite.Run(t, new(RoutersTestSuite))
}

func (s *RoutersTestSuite) do(method, path string, body io.Reader, contentType string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(method, s.server.URL+path, body)
	s.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &out), string(raw))
	}

	return resp, out
}

func (s *RoutersTestSuite) doJSON(method, path string, payload any) (*http.Response, map[string]any) {
	b, err := json.Marshal(payload)
	s.Require().NoError(err)

	return s.do(method, path, bytes.NewReader(b), echo.MIMEApplicationJSON)
}

func (s *RoutersTestSuite) upload(userID, filename, contentType, content, caption string) (*http.Response, map[string]any) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	s.Require().NoError(err)
	_, err = part.Write([]byte(content))
	s.Require().NoError(err)

	if userID != "" {
		s.Require().NoError(w.WriteField("userId", userID))
	}
	if caption != "" {
		s.Require().NoError(w.WriteField("caption", caption))
	}
	s.Require().NoError(w.WriteField("metadata", `{"album":"summer","year":1998}`))
	s.Require().NoError(w.Close())

	return s.do(http.MethodPost, "/api/upload", body, w.FormDataContentType())
}

func (s *RoutersTestSuite) TestHealth() {
	resp, body := s.do(http.MethodGet, "/api/health", nil, "")

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
	s.Equal("Upload API is running", body["message"])
}

func (s *RoutersTestSuite) TestUploadAndList() {
	resp, body := s.upload("sarah", "photo.jpg", "image/jpeg", "jpeg-bytes", "At the lake")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)
	s.Equal(true, body["success"])
	s.Equal("users/sarah/images/photo.jpg", body["key"])
	s.Equal("https://cdn.test/users/sarah/images/photo.jpg", body["url"])

	meta := body["metadata"].(map[string]any)
	s.Equal("image/jpeg", meta["type"])
	s.EqualValues(len("jpeg-bytes"), meta["size"])

	resp, body = s.do(http.MethodGet, "/api/files/sarah", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	files := body["files"].([]any)
	s.Require().Len(files, 1)
	file := files[0].(map[string]any)
	s.Equal("image", file["type"])
	s.Equal("At the lake", file["caption"])

	resp, body = s.do(http.MethodGet, "/api/captions/sarah", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(map[string]any{"users/sarah/images/photo.jpg": "At the lake"}, body["captions"])
}

func (s *RoutersTestSuite) TestUploadValidation() {
	s.Run("unsupported type", func() {
		resp, body := s.upload("sarah", "notes.txt", "text/plain", "hello", "")
		s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
		s.Equal("File type not supported", body["error"])
	})

	s.Run("missing user", func() {
		resp, body := s.upload("", "photo.jpg", "image/jpeg", "x", "")
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("userId is required", body["error"])
	})

	s.Run("missing file", func() {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		s.Require().NoError(w.WriteField("userId", "sarah"))
		s.Require().NoError(w.Close())

		resp, out := s.do(http.MethodPost, "/api/upload", body, w.FormDataContentType())
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("No file provided", out["error"])
	})
}

func (s *RoutersTestSuite) TestDeleteFile() {
	resp, _ := s.upload("sarah", "photo.jpg", "image/jpeg", "jpeg-bytes", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, body := s.do(http.MethodDelete, "/api/files/sarah/users/sarah/images/photo.jpg", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(http.MethodGet, "/api/deleted/sarah", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal([]any{"users/sarah/images/photo.jpg"}, body["deleted"])

	_, body = s.do(http.MethodGet, "/api/files/sarah", nil, "")
	s.Empty(body["files"])

	resp, body = s.do(http.MethodDelete, "/api/files/sarah/users/bob/images/photo.jpg", nil, "")
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("File does not belong to this user", body["error"])
}

func (s *RoutersTestSuite) TestReuploadAfterDelete() {
	resp, body := s.upload("sarah", "photo.jpg", "image/jpeg", "v1", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)
	firstKey := body["key"].(string)

	resp, body = s.do(http.MethodDelete, "/api/files/sarah/"+firstKey, nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)

	resp, body = s.upload("sarah", "photo.jpg", "image/jpeg", "v2", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)
	s.NotEqual(firstKey, body["key"])

	_, body = s.do(http.MethodGet, "/api/files/sarah", nil, "")
	files := body["files"].([]any)
	s.Require().Len(files, 1)
	s.NotEqual(firstKey, files[0].(map[string]any)["key"])
}

func (s *RoutersTestSuite) TestDeleteDropsCachedSlideshow() {
	resp, body := s.upload("sarah", "a.jpg", "image/jpeg", "a", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(http.MethodGet, "/api/slideshow/sarah?template=classic", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)

	resp, _ = s.do(http.MethodGet, "/api/slideshow/sarah/cached", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, body = s.do(http.MethodDelete, "/api/files/sarah/users/sarah/images/a.jpg", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(http.MethodGet, "/api/slideshow/sarah/cached", nil, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("No compiled slideshow found", body["error"])
}

func (s *RoutersTestSuite) TestUpdateCaptions() {
	resp, body := s.doJSON(http.MethodPut, "/api/captions/sarah", map[string]any{
		"captions": map[string]string{"users/sarah/images/a.jpg": "First", "users/sarah/images/b.jpg": ""},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)
	s.Equal(map[string]any{"users/sarah/images/a.jpg": "First"}, body["captions"])

	resp, _ = s.do(http.MethodPut, "/api/captions/sarah", strings.NewReader("{"), echo.MIMEApplicationJSON)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *RoutersTestSuite) TestTributesAndSlideshow() {
	resp, body := s.doJSON(http.MethodPost, "/api/tributes", map[string]string{
		"name": "Ana", "relationship": "Friend", "memory": "Always laughing",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, body)

	resp, body = s.doJSON(http.MethodPost, "/api/tributes", map[string]string{"name": "Ana"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/tributes", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Len(body["tributes"], 1)

	resp, body = s.do(http.MethodGet, "/api/timeline", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Empty(body["events"])

	s.upload("sarah", "a.jpg", "image/jpeg", "a", "")
	s.upload("sarah", "b.jpg", "image/jpeg", "b", "")

	resp, body = s.do(http.MethodGet, "/api/slideshow/sarah/cached", nil, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("No compiled slideshow found", body["error"])

	resp, body = s.do(http.MethodGet, "/api/slideshow/sarah?template=classic", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)
	show := body["slideshow"].(map[string]any)
	s.Equal("classic", show["template"])
	s.Len(show["slides"], 3)
	s.EqualValues(18, show["totalDuration"])

	resp, body = s.do(http.MethodGet, "/api/slideshow/sarah/cached", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("classic", body["slideshow"].(map[string]any)["template"])

	resp, body = s.do(http.MethodGet, "/api/slideshow/sarah/stats", nil, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	stats := body["stats"].(map[string]any)
	s.EqualValues(3, stats["totalSlides"])
	s.Equal("0:18", stats["durationFormatted"])

	resp, _ = s.do(http.MethodGet, "/api/slideshow/sarah?template=vaporwave", nil, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *RoutersTestSuite) TestLoginSession() {
	resp, _ := s.do(http.MethodGet, "/api/session", nil, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.doJSON(http.MethodPost, "/api/login", map[string]string{
		"email": "admin@example.com", "password": "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Invalid email or password", body["error"])

	resp, body = s.doJSON(http.MethodPost, "/api/login", map[string]string{
		"email": "admin@example.com", "password": "memorial-pass",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode, body)
	s.NotEmpty(body["token"])
	s.Equal("admin", body["user"].(map[string]any)["role"])

	cookies := resp.Cookies()
	s.Require().NotEmpty(cookies)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/session", nil)
	s.Require().NoError(err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	sessResp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer sessResp.Body.Close()
	s.Equal(http.StatusOK, sessResp.StatusCode)
}

func TestCurrentUser_NoSessionMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := httprouters.CurrentUser(c)
	require.False(t, ok)

	c.Set(httprouters.TokenContextKey, models.SessionUser{ID: "admin_example_com", Role: models.RoleAdmin})

	user, ok := httprouters.CurrentUser(c)
	require.True(t, ok)
	require.True(t, user.IsAdmin())
}
