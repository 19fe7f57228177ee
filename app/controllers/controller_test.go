package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sakibee/app/models"
	"sakibee/app/repositories"
	"sakibee/app/repositories/mock"
	"sakibee/app/services"
	"sakibee/app/storage"
	"sakibee/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *mux.Router
	repo   *mock.Repository
	dir    string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	repo := mock.NewRepository()
	service := services.NewPostService(repo, store, nil)
	posts := NewPostController(service, views.MustLoad(), 1<<20, nil)
	comments := NewCommentController(service, nil)
	images := NewImageController(store, nil)

	router := mux.NewRouter()
	router.HandleFunc("/", posts.Index).Methods(http.MethodGet)
	router.HandleFunc("/posts", posts.Index).Methods(http.MethodGet)
	router.HandleFunc("/posts/create", posts.New).Methods(http.MethodGet)
	router.HandleFunc("/posts/create", posts.Create).Methods(http.MethodPost)
	router.HandleFunc("/posts/comments", comments.Create).Methods(http.MethodPost)
	router.HandleFunc("/posts/{id}/edit", posts.Edit).Methods(http.MethodGet)
	router.HandleFunc("/posts/{id}/edit", posts.Update).Methods(http.MethodPost)
	router.HandleFunc("/posts/{id}/delete", posts.ConfirmDelete).Methods(http.MethodGet)
	router.HandleFunc("/posts/{id}/delete", posts.Delete).Methods(http.MethodPost)
	router.HandleFunc("/posts/{id}", posts.Show).Methods(http.MethodGet)
	router.HandleFunc("/images/{name}", images.Show).Methods(http.MethodGet)
	router.HandleFunc("/healthz", Health).Methods(http.MethodGet)

	return &testEnv{router: router, repo: repo, dir: dir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, target string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("featureImage", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Fresh post",
		"content":     "Body text",
		"author":      "Ann",
		"categoryId":  "1",
		"publishDate": "2024-03-07",
	}
}

func TestIndex(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tech Post 1")
	assert.Contains(t, w.Body.String(), "Health Post 1")

	w = env.do(httptest.NewRequest(http.MethodGet, "/posts?categoryId=2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Health Post 1")
	assert.NotContains(t, w.Body.String(), "Tech Post 1")

	w = env.do(httptest.NewRequest(http.MethodGet, "/posts?categoryId=abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tech Post 1")
	assert.Contains(t, w.Body.String(), "Lifestyle Post 1")
}

func TestCreatePost(t *testing.T) {
	t.Run("form lists categories", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(httptest.NewRequest(http.MethodGet, "/posts/create", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Technology")
		assert.Contains(t, w.Body.String(), "LifeStyle")
	})

	t.Run("redirects after create", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(postForm(t, "/posts/create", validFields(), "cover.JPG", "jpg"))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.Equal(t, 4, env.repo.PostCount())

		post, err := env.repo.GetPost(context.Background(), 4, repositories.LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Fresh post", post.Title)
		assert.True(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC).Equal(post.PublishDate))
		assert.True(t, strings.HasSuffix(post.ImagePath(), ".jpg"))

		w = env.do(httptest.NewRequest(http.MethodGet, post.ImagePath(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jpg", w.Body.String())
		assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	})

	t.Run("re-renders with errors", func(t *testing.T) {
		env := setupTestEnv(t)
		fields := validFields()
		fields["categoryId"] = ""

		w := env.do(postForm(t, "/posts/create", fields, "", ""))
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Please select a category.")
		assert.Contains(t, body, `value="Fresh post"`)
		assert.Contains(t, body, "Health")
		assert.Equal(t, 3, env.repo.PostCount())
	})

	t.Run("requires an image", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(postForm(t, "/posts/create", validFields(), "", ""))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Please upload an image file.")
	})

	t.Run("rejects other formats", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(postForm(t, "/posts/create", validFields(), "doc.pdf", "pdf"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid image format. Allowed formats are .jpg, .jpeg, .png")
	})

	t.Run("body too large", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(postForm(t, "/posts/create", validFields(), "big.png", strings.Repeat("x", 2<<20)))
		assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
		assert.Equal(t, 3, env.repo.PostCount())
	})
}

func TestEditPost(t *testing.T) {
	t.Run("form is filled", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(httptest.NewRequest(http.MethodGet, "/posts/2/edit", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="Health Post 1"`)
		assert.Contains(t, w.Body.String(), `value="2023-01-01"`)
	})

	t.Run("update keeps image", func(t *testing.T) {
		env := setupTestEnv(t)
		env.do(postForm(t, "/posts/create", validFields(), "a.png", "a"))
		before, _ := env.repo.GetPost(context.Background(), 4, repositories.LoadOptions{})

		fields := validFields()
		fields["title"] = "Edited"
		w := env.do(postForm(t, "/posts/4/edit", fields, "", ""))
		assert.Equal(t, http.StatusSeeOther, w.Code)

		after, err := env.repo.GetPost(context.Background(), 4, repositories.LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Edited", after.Title)
		assert.Equal(t, before.ImagePath(), after.ImagePath())
	})

	t.Run("missing and malformed ids", func(t *testing.T) {
		env := setupTestEnv(t)

		for _, target := range []string{"/posts/99/edit", "/posts/abc/edit", "/posts/99999999999999999999999/edit"} {
			w := env.do(httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusNotFound, w.Code, target)
		}

		w := env.do(postForm(t, "/posts/99/edit", validFields(), "", ""))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeletePost(t *testing.T) {
	env := setupTestEnv(t)
	env.do(postForm(t, "/posts/create", validFields(), "a.png", "a"))

	w := env.do(httptest.NewRequest(http.MethodGet, "/posts/4/delete", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fresh post")

	w = env.do(httptest.NewRequest(http.MethodPost, "/posts/4/delete", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 3, env.repo.PostCount())

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	w = env.do(httptest.NewRequest(http.MethodPost, "/posts/4/delete", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(httptest.NewRequest(http.MethodGet, "/posts/4/delete", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShowPost(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Content of Tech Post 1")
	assert.Contains(t, w.Body.String(), "Technology")

	w = env.do(httptest.NewRequest(http.MethodGet, "/posts/404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddComment(t *testing.T) {
	t.Run("returns the acknowledgement", func(t *testing.T) {
		env := setupTestEnv(t)
		env.repo.Now = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }

		body := `{"userName":"Alice","content":"Nice post","postId":1,"commentDate":"1999-01-01T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/posts/comments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := env.do(req)

		assert.Equal(t, http.StatusOK, w.Code)
		var ack services.CommentAck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
		assert.Equal(t, services.CommentAck{UserName: "Alice", Content: "Nice post", CommentDate: "March 07, 2024"}, ack)

		w = env.do(httptest.NewRequest(http.MethodGet, "/posts/1", nil))
		assert.Contains(t, w.Body.String(), "Nice post")
		assert.Contains(t, w.Body.String(), "March 07, 2024")
	})

	t.Run("validation errors", func(t *testing.T) {
		env := setupTestEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/posts/comments", strings.NewReader(`{"postId":1}`))
		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Errors models.FieldErrors `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "The username is required", resp.Errors["userName"])

		req = httptest.NewRequest(http.MethodPost, "/posts/comments", strings.NewReader(`{"userName":"  ","content":"\t ","postId":1}`))
		w = env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp.Errors = nil
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "The username is required", resp.Errors["userName"])
		assert.Equal(t, "The content is required", resp.Errors["content"])
	})

	t.Run("unknown post", func(t *testing.T) {
		env := setupTestEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/posts/comments", strings.NewReader(`{"userName":"u","content":"c","postId":77}`))
		w := env.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(httptest.NewRequest(http.MethodPost, "/posts/comments", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImages(t *testing.T) {
	env := setupTestEnv(t)

	for _, target := range []string{"/images/missing.png", "/images/notes.txt"} {
		w := env.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
