package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonebourse-go/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler, options ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, options...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}

func TestLoginSuccessReturnsCookiesAndUser(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+2250700000000", body.NumeroWhatsapp)

		http.SetCookie(w, &http.Cookie{Name: "session", Value: "backend-token"})
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Connexion réussie",
			"user":    map[string]any{"nom": "Kouassi", "prenom": "Awa", "is_admin": true},
		})
	}))

	result, auth, err := client.Login(context.Background(), model.LoginRequest{NumeroWhatsapp: "+2250700000000", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Connexion réussie", result.Message)
	require.NotNil(t, result.User)
	assert.Equal(t, "Awa", result.User.Prenom)
	assert.True(t, result.User.IsAdmin)
	require.Len(t, auth, 1)
	assert.Equal(t, "backend-token", auth[0].Value)
}

func TestLoginFailureIsAPIErrorEvenWithStatus200(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Identifiants incorrects"})
	}))

	result, auth, err := client.Login(context.Background(), model.LoginRequest{})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Nil(t, auth)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Identifiants incorrects", apiErr.Message)
	assert.Equal(t, "Identifiants incorrects", Message(err, "fallback"))
}

func TestInvalidBodyIsDecodeError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))

	_, err := client.Register(context.Background(), model.RegisterRequest{})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, "Erreur d'inscription", Message(err, "Erreur d'inscription"))
}

func TestTransportErrorWhenBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := New(base)
	require.NoError(t, err)

	_, err = client.ListBourses(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestTimeoutIsTransportError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}), WithTimeout(20*time.Millisecond))

	_, err := client.ListBourses(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestListBoursesDecodesNumericAndStringIDs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bourses", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":7,"titre":"X","universite":"U","pays":"P"},{"id":"12","titre":"Y"}]`)
	}))

	bourses, err := client.ListBourses(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, bourses, 2)
	assert.Equal(t, model.BourseID(7), bourses[0].ID)
	assert.Equal(t, model.BourseID(12), bourses[1].ID)
}

func TestListBoursesNullIsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	}))

	bourses, err := client.ListBourses(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, bourses)
	assert.Empty(t, bourses)
}

func TestGetRetriesOnlyIdempotentReads(t *testing.T) {
	var listCalls, logoutCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/bourses", func(w http.ResponseWriter, r *http.Request) {
		if listCalls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutCalls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	client := newTestClient(t, mux, WithGetRetries(2, time.Millisecond))

	bourses, err := client.ListBourses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, bourses)
	assert.Equal(t, int32(3), listCalls.Load())

	_, err = client.Logout(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), logoutCalls.Load())
}

func TestGetBourseErrorBodies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/bourse/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":7,"titre":"X","conditions":"a\nb"}`)
	})
	mux.HandleFunc("/api/bourse/404", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bourse non trouvée"})
	})
	mux.HandleFunc("/api/bourse/500", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "Erreur base"})
	})
	client := newTestClient(t, mux)

	b, err := client.GetBourse(context.Background(), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, "X", b.Titre)
	assert.Equal(t, "a\nb", b.Conditions)

	_, err = client.GetBourse(context.Background(), nil, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Bourse non trouvée", Message(err, ""))

	_, err = client.GetBourse(context.Background(), nil, 500)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Erreur base", apiErr.Message)
}

func TestAuthCookiesAreReplayed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		require.NoError(t, err)
		assert.Equal(t, "backend-token", cookie.Value)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Déconnexion réussie"})
	}))

	result, err := client.Logout(context.Background(), Auth{{Name: "session", Value: "backend-token"}})
	require.NoError(t, err)
	assert.Equal(t, "Déconnexion réussie", result.Message)
}

func TestCreateBourseSendsMultipart(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bourses", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Bourse Eiffel", r.FormValue("titre"))
		assert.Equal(t, "France", r.FormValue("pays"))
		require.Len(t, r.MultipartForm.File["image"], 1)
		assert.Equal(t, "cover.png", r.MultipartForm.File["image"][0].Filename)
		assert.Len(t, r.MultipartForm.File["procedure_medias"], 2)
		assert.Empty(t, r.MultipartForm.File["video"])

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Bourse ajoutée avec succès"})
	}))

	files := buildFileHeaders(t, map[string][]string{
		"image":            {"cover.png"},
		"procedure_medias": {"step1.jpg", "step2.mp4"},
	})

	result, err := client.CreateBourse(context.Background(), nil, model.BourseUpload{
		Fields:          model.BourseFields{Titre: "Bourse Eiffel", Pays: "France"},
		Image:           files["image"][0],
		ProcedureMedias: files["procedure_medias"],
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestDeleteBourseUsesDeleteVerb(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/bourse/9", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Bourse supprimée avec succès"})
	}))

	result, err := client.DeleteBourse(context.Background(), nil, 9)
	require.NoError(t, err)
	assert.Equal(t, "Bourse supprimée avec succès", result.Message)
}

// buildFileHeaders round-trips files through a multipart body so the headers
// can be opened like real uploads.
func buildFileHeaders(t *testing.T, fields map[string][]string) map[string][]*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, names := range fields {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("content of " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File
}
