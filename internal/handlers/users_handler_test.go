package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/storage"
	"github.com/imrishuroy/go-restaurant-pos/internal/users"
)

type fakeUserService struct {
	registered  []users.RegisterInput
	registerErr error
}

func (f *fakeUserService) VerifyToken(raw string) (*users.Claims, error) {
	if raw != "good" {
		return nil, apperr.Unauthenticated("invalid token")
	}
	return &users.Claims{UserID: 7, Username: "sam", Role: users.RoleChef}, nil
}

func (f *fakeUserService) Register(ctx context.Context, in users.RegisterInput) (*users.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, in)
	return &users.User{ID: 1, Username: in.Username, Email: in.Email, Role: in.Role}, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*users.User, string, error) {
	if password != "secret" {
		return nil, "", apperr.Validation("invalid credentials")
	}
	return &users.User{ID: 7, Email: email}, "good", nil
}

func (f *fakeUserService) CurrentUser(ctx context.Context, id int64) (*users.User, error) {
	if id != 7 {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return &users.User{ID: 7, Username: "sam"}, nil
}

type fakeImages struct {
	saved   []string
	deleted []string
	err     error
}

func (f *fakeImages) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if !strings.HasSuffix(filename, ".jpg") && !strings.HasSuffix(filename, ".png") {
		return "", fmt.Errorf("%w %q", storage.ErrUnsupportedType, filename)
	}
	f.saved = append(f.saved, filename)
	return "/uploads/" + filename, nil
}

func (f *fakeImages) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func usersRouter(svc *fakeUserService, images *fakeImages) http.Handler {
	r := newRouter()
	RegisterUsersRoutes(r, UsersConfig{Service: svc, Images: images, Logger: discardLogger()})
	return r
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		fw.Write([]byte("fake image bytes"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var registerFields = map[string]string{
	"fullName": "Sam Cook",
	"username": "sam",
	"email":    "sam@example.com",
	"password": "secret",
	"role":     "chef",
}

func TestRegister(t *testing.T) {
	svc := &fakeUserService{}
	images := &fakeImages{}
	r := usersRouter(svc, images)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/register", registerFields, "avatar", "me.png"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(svc.registered) != 1 || svc.registered[0].AvatarURL != "/uploads/me.png" {
		t.Fatalf("unexpected registration %+v", svc.registered)
	}
}

func TestRegister_AvatarRequired(t *testing.T) {
	svc := &fakeUserService{}
	r := usersRouter(svc, &fakeImages{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/register", registerFields, "", ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if decodeBody(t, w)["message"] != "All fields are required." {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if len(svc.registered) != 0 {
		t.Fatalf("nothing should be registered")
	}
}

func TestLogin(t *testing.T) {
	r := usersRouter(&fakeUserService{}, &fakeImages{})

	w := doJSON(r, http.MethodPost, "/login", `{"email":"sam@example.com","password":"secret"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["token"] != "good" {
		t.Fatalf("expected token in body")
	}

	w = doJSON(r, http.MethodPost, "/login", `{"email":"sam@example.com","password":"nope"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong password, got %d", w.Code)
	}
}

func TestVerifyToken(t *testing.T) {
	r := usersRouter(&fakeUserService{}, &fakeImages{})

	if w := doJSON(r, http.MethodGet, "/verify-token", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/verify-token", "", map[string]string{"Authorization": "Bearer bad"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}

	w := doJSON(r, http.MethodGet, "/verify-token", "", map[string]string{"Authorization": "Bearer good"})
	if w.Code != http.StatusOK || decodeBody(t, w)["authenticated"] != true {
		t.Fatalf("expected authenticated, got %d %s", w.Code, w.Body.String())
	}
}

func TestCurrentUser_RequiresToken(t *testing.T) {
	r := usersRouter(&fakeUserService{}, &fakeImages{})

	cases := []struct {
		name   string
		header map[string]string
		code   int
	}{
		{"no token", nil, http.StatusForbidden},
		{"invalid token", map[string]string{"Authorization": "Bearer bad"}, http.StatusForbidden},
		{"valid token", map[string]string{"Authorization": "Bearer good"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doJSON(r, http.MethodGet, "/current-user", "", tc.header); w.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, w.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	r := usersRouter(&fakeUserService{}, &fakeImages{})
	w := doJSON(r, http.MethodPost, "/api/auth/logout", "", nil)
	if w.Code != http.StatusOK || decodeBody(t, w)["message"] != "Successfully logged out" {
		t.Fatalf("unexpected logout response %d %s", w.Code, w.Body.String())
	}
}

func TestRegister_FailureRemovesAvatar(t *testing.T) {
	images := &fakeImages{}
	r := usersRouter(&fakeUserService{registerErr: apperr.Conflict("email already registered")}, images)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/register", registerFields, "avatar", "me.png"))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "/uploads/me.png" {
		t.Fatalf("expected avatar to be removed, got %v", images.deleted)
	}
}
