package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	err        error
	financial  map[string]bool
	batchCalls int
	termCalls  int
}

func (f *fakeClassifier) ClassifyTerm(_ context.Context, term string) (model.Classification, error) {
	f.termCalls++
	if f.err != nil {
		return model.Classification{}, f.err
	}
	return model.Classification{Term: term, IsFinancial: f.financial[term]}, nil
}

func (f *fakeClassifier) ClassifyBatch(_ context.Context, terms []string) ([]model.Classification, error) {
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Classification, len(terms))
	for i, term := range terms {
		out[i] = model.Classification{Term: term, IsFinancial: f.financial[term]}
	}
	return out, nil
}

type fakeDictionary map[string][]model.DictionaryMatch

func (f fakeDictionary) Lookup(query string) []model.DictionaryMatch {
	return f[query]
}

type fakeDefiner struct {
	err   error
	image string
}

func (f *fakeDefiner) DefineText(_ context.Context, term string) (model.Definition, error) {
	if f.err != nil {
		return model.Definition{}, f.err
	}
	return model.Definition{Term: term, Definition: "설명", Category: "금융상품"}, nil
}

func (f *fakeDefiner) DefineImage(_ context.Context, encoded string) (model.Definition, error) {
	f.image = encoded
	if f.err != nil {
		return model.Definition{}, f.err
	}
	return model.Definition{Term: "한도", Definition: "최대 금액", Category: "계좌관리"}, nil
}

type fakeMenuFinder struct {
	err error
	rec model.MenuRecommendation
}

func (f *fakeMenuFinder) Recommend(context.Context, string) (model.MenuRecommendation, error) {
	return f.rec, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc Services) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(svc, Options{}, quietLogger())
}

func defaultServices() (Services, *fakeClassifier, *fakeClassifier) {
	local := &fakeClassifier{financial: map[string]bool{"금리": true, "예금": true}}
	remote := &fakeClassifier{financial: map[string]bool{"대출": true}}
	return Services{
		Classifier:    local,
		LLMClassifier: remote,
		Dictionary: fakeDictionary{
			"금리": {{Term: "금리", Definition: "이자의 비율", Score: 100}},
		},
		Definer:    &fakeDefiner{},
		MenuFinder: &fakeMenuFinder{rec: model.MenuRecommendation{Category: "이체", SelectedMenu: "계좌이체", Description: "송금", CandidateMenus: []string{}}},
	}, local, remote
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	msg, _ := res["error"].(string)
	return msg
}

func TestValidation(t *testing.T) {
	svc, _, _ := defaultServices()
	r := newTestRouter(svc)

	tests := []struct {
		name    string
		path    string
		body    string
		wantMsg string
	}{
		{name: "not json", path: "/classify", body: "term=금리", wantMsg: "request body must be a JSON object"},
		{name: "json array", path: "/classify", body: `["금리"]`, wantMsg: "request body must be a JSON object"},
		{name: "json null", path: "/classify", body: `null`, wantMsg: "request body must be a JSON object"},
		{name: "empty body", path: "/classify_llm", body: "", wantMsg: "request body must be a JSON object"},
		{name: "missing term", path: "/classify", body: `{}`, wantMsg: "term field is required"},
		{name: "term wrong type", path: "/classify", body: `{"term":42}`, wantMsg: "term must be a string"},
		{name: "term null", path: "/classify_llm", body: `{"term":null}`, wantMsg: "term must be a string"},
		{name: "term blank", path: "/define_term_text", body: `{"term":"  "}`, wantMsg: "term must not be empty"},
		{name: "missing terms", path: "/classify_batch", body: `{"term":"금리"}`, wantMsg: "terms field is required"},
		{name: "terms not a list", path: "/classify_batch", body: `{"terms":"금리"}`, wantMsg: "terms must be a list"},
		{name: "terms mixed types", path: "/classify_llm_batch", body: `{"terms":["금리",1]}`, wantMsg: "terms must contain only strings"},
		{name: "missing image", path: "/define_term_image", body: `{"img":"abc"}`, wantMsg: "image field is required"},
		{name: "missing request", path: "/recommend_menu", body: `{"query":"송금"}`, wantMsg: "request field is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMsg, errorMessage(t, w))
		})
	}
}

func TestClassify(t *testing.T) {
	svc, local, _ := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/classify", `{"term":"금리"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"term":"금리","is_financial":true}`, w.Body.String())
	assert.Equal(t, 1, local.termCalls)
}

func TestClassify_Failure(t *testing.T) {
	svc, local, _ := defaultServices()
	local.err = errors.New("model server error (status 503): overloaded")
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/classify", `{"term":"금리"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "model server error (status 503): overloaded", errorMessage(t, w))
}

func TestClassifyBatch(t *testing.T) {
	svc, local, _ := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/classify_batch", `{"terms":["예금","로그인","금리"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[
		{"term":"예금","is_financial":true},
		{"term":"로그인","is_financial":false},
		{"term":"금리","is_financial":true}
	]}`, w.Body.String())
	assert.Equal(t, 1, local.batchCalls)
}

func TestEmptyBatchSkipsModel(t *testing.T) {
	for _, path := range []string{"/classify_batch", "/classify_llm_batch"} {
		t.Run(path, func(t *testing.T) {
			svc, local, remote := defaultServices()
			r := newTestRouter(svc)

			w := do(r, http.MethodPost, path, `{"terms":[]}`)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"results":[]}`, w.Body.String())
			assert.Zero(t, local.batchCalls)
			assert.Zero(t, remote.batchCalls)
		})
	}
}

func TestClassifyLLM(t *testing.T) {
	svc, _, remote := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/classify_llm", `{"term":"대출"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"term":"대출","is_financial":true}`, w.Body.String())

	w = do(r, http.MethodPost, "/classify_llm_batch", `{"terms":["대출","날씨"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[{"term":"대출","is_financial":true},{"term":"날씨","is_financial":false}]}`, w.Body.String())
	assert.Equal(t, 1, remote.termCalls)
	assert.Equal(t, 1, remote.batchCalls)
}

func TestClassifyLLM_FailureHidesProviderError(t *testing.T) {
	svc, _, remote := defaultServices()
	remote.err = fmt.Errorf("classify failed: %w", errors.New("googleapi: Error 403: key leaked"))
	r := newTestRouter(svc)

	for _, tc := range []struct{ path, body string }{
		{"/classify_llm", `{"term":"대출"}`},
		{"/classify_llm_batch", `{"terms":["대출","예금"]}`},
	} {
		w := do(r, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, tc.path)
		assert.Equal(t, msgLLMClassifyFailed, errorMessage(t, w), tc.path)
		assert.NotContains(t, w.Body.String(), "key leaked")
	}
}

func TestUserErrorMessageIsShown(t *testing.T) {
	svc, _, remote := defaultServices()
	remote.err = common.NewUserError("the LLM quota is exhausted", common.ErrRateLimit)
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/classify_llm", `{"term":"대출"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "the LLM quota is exhausted", errorMessage(t, w))
}

func TestDeadlineMapsToGatewayTimeout(t *testing.T) {
	svc, _, _ := defaultServices()
	svc.Definer = &fakeDefiner{err: fmt.Errorf("define failed: %w", context.DeadlineExceeded)}
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/define_term_text", `{"term":"금리"}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, msgTimeout, errorMessage(t, w))
}

func TestDefinition(t *testing.T) {
	svc, _, _ := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodGet, "/fin_term_definition?term="+url.QueryEscape("금리"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[{"term":"금리","definition":"이자의 비율","score":100}]}`, w.Body.String())

	w = do(r, http.MethodGet, "/fin_term_definition?term="+url.QueryEscape("날씨"), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgTermNotFound, errorMessage(t, w))

	w = do(r, http.MethodGet, "/fin_term_definition", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "term parameter is required", errorMessage(t, w))
}

func TestDefineText(t *testing.T) {
	svc, _, _ := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/define_term_text", `{"term":"금리"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"term":"금리","definition":"설명","category":"금융상품"}`, w.Body.String())

	svc.Definer = &fakeDefiner{err: llm.ErrTermMismatch}
	r = newTestRouter(svc)
	w = do(r, http.MethodPost, "/define_term_text", `{"term":"금리"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgDefineTextFailed, errorMessage(t, w))
}

func TestDefineImage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, _, _ := defaultServices()
		definer := &fakeDefiner{}
		svc.Definer = definer
		r := newTestRouter(svc)

		w := do(r, http.MethodPost, "/define_term_image", `{"image":"data:image/png;base64,iVBORw0KGgo="}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"term":"한도","definition":"최대 금액","category":"계좌관리"}`, w.Body.String())
		assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", definer.image)
	})

	t.Run("bad base64", func(t *testing.T) {
		svc, _, _ := defaultServices()
		svc.Definer = &fakeDefiner{err: fmt.Errorf("%w: illegal data", llm.ErrBadImage)}
		r := newTestRouter(svc)

		w := do(r, http.MethodPost, "/define_term_image", `{"image":"***"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "image must be base64-encoded image data", errorMessage(t, w))
	})

	t.Run("unrecognizable", func(t *testing.T) {
		svc, _, _ := defaultServices()
		svc.Definer = &fakeDefiner{err: llm.ErrUnrecognizable}
		r := newTestRouter(svc)

		w := do(r, http.MethodPost, "/define_term_image", `{"image":"iVBORw0KGgo="}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, msgDefineImageFailed, errorMessage(t, w))
	})
}

func TestRecommendMenu(t *testing.T) {
	svc, _, _ := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/recommend_menu", `{"request":"친구에게 돈 보내기"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"result":{
		"category":"이체","selected_menu":"계좌이체","description":"송금","candidate_menus":[]
	}}`, w.Body.String())

	svc.MenuFinder = &fakeMenuFinder{err: llm.ErrUnknownMenu}
	r = newTestRouter(svc)
	w = do(r, http.MethodPost, "/recommend_menu", `{"request":"친구에게 돈 보내기"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"no suitable menu found"}`, w.Body.String())
}

func TestLLMDisabled(t *testing.T) {
	svc, _, _ := defaultServices()
	svc.LLMClassifier = nil
	svc.Definer = nil
	svc.MenuFinder = nil
	r := newTestRouter(svc)

	for _, tc := range []struct{ path, body string }{
		{"/classify_llm", `{"term":"a"}`},
		{"/classify_llm_batch", `{"terms":["a"]}`},
		{"/define_term_text", `{"term":"a"}`},
		{"/define_term_image", `{"image":"a"}`},
		{"/recommend_menu", `{"request":"a"}`},
	} {
		w := do(r, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.path)
		assert.Equal(t, msgLLMDisabled, errorMessage(t, w), tc.path)
	}

	// The local endpoints keep working.
	w := do(r, http.MethodPost, "/classify", `{"term":"금리"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/classify_llm_batch", `{"terms":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	svc, _, _ := defaultServices()
	r := newTestRouter(svc)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRequestTimeoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestTimeout(20 * time.Millisecond))
	r.GET("/deadline", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(20*time.Millisecond), deadline, 20*time.Millisecond)
		c.Status(http.StatusNoContent)
	})

	w := do(r, http.MethodGet, "/deadline", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
