package cataloghandler

import (
	"context"
	"net/http"
	"testing"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/catalog"
	"feedback360/internal/transport/http/handlers/testkit"
)

type fakeCatalog struct {
	categories map[int64]catalog.Category
	questions  map[int64]catalog.Question
	nextID     int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories: map[int64]catalog.Category{1: {ID: 1, Name: "Leadership"}, 2: {ID: 2, Name: "Empty"}},
		questions:  map[int64]catalog.Question{10: {ID: 10, Text: "Sets direction", CategoryID: 1}},
		nextID:     100,
	}
}

func (f *fakeCatalog) ListCategories(context.Context) ([]catalog.Category, error) {
	out := []catalog.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalog) GetCategory(_ context.Context, id int64) (catalog.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	return c, nil
}

func (f *fakeCatalog) CreateCategory(_ context.Context, input catalog.CategoryInput) (catalog.Category, error) {
	for _, c := range f.categories {
		if c.Name == input.Name {
			return catalog.Category{}, catalog.ErrCategoryNameTaken
		}
	}
	f.nextID++
	c := catalog.Category{ID: f.nextID, Name: input.Name, Description: input.Description}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCatalog) UpdateCategory(_ context.Context, id int64, patch catalog.CategoryPatch) (catalog.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	f.categories[id] = c
	return c, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return catalog.ErrCategoryNotFound
	}
	for _, q := range f.questions {
		if q.CategoryID == id {
			return catalog.ErrCategoryHasQuestions
		}
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCatalog) ListQuestions(context.Context) ([]catalog.Question, error) {
	return nil, nil
}

func (f *fakeCatalog) ListQuestionsByCategory(_ context.Context, categoryID int64) ([]catalog.Question, error) {
	if _, ok := f.categories[categoryID]; !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	var out []catalog.Question
	for _, q := range f.questions {
		if q.CategoryID == categoryID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetQuestion(_ context.Context, id int64) (catalog.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return catalog.Question{}, catalog.ErrQuestionNotFound
	}
	return q, nil
}

func (f *fakeCatalog) CreateQuestion(_ context.Context, input catalog.QuestionInput) (catalog.Question, error) {
	if _, ok := f.categories[input.CategoryID]; !ok {
		return catalog.Question{}, catalog.ErrUnknownCategory
	}
	f.nextID++
	q := catalog.Question{ID: f.nextID, Text: input.Text, CategoryID: input.CategoryID}
	f.questions[q.ID] = q
	return q, nil
}

func (f *fakeCatalog) UpdateQuestion(_ context.Context, id int64, patch catalog.QuestionPatch) (catalog.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return catalog.Question{}, catalog.ErrQuestionNotFound
	}
	if patch.CategoryID != nil {
		if _, ok := f.categories[*patch.CategoryID]; !ok {
			return catalog.Question{}, catalog.ErrUnknownCategory
		}
		q.CategoryID = *patch.CategoryID
	}
	f.questions[id] = q
	return q, nil
}

func (f *fakeCatalog) DeleteQuestion(_ context.Context, id int64) error {
	if _, ok := f.questions[id]; !ok {
		return catalog.ErrQuestionNotFound
	}
	delete(f.questions, id)
	return nil
}

func TestDeleteCategoryWithQuestionsConflicts(t *testing.T) {
	h := NewHandler(newFakeCatalog(), auth.NewRolePermissionStore())
	router := testkit.Router(h, &testkit.Admin)

	rec := testkit.Do(t, router, http.MethodDelete, "/categories/1", nil)
	if rec.Code != http.StatusConflict || testkit.ErrorCode(t, rec) != "has_dependents" {
		t.Fatalf("expected 409 has_dependents, got %d", rec.Code)
	}
	if rec := testkit.Do(t, router, http.MethodDelete, "/categories/2", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty category, got %d", rec.Code)
	}
}

func TestCreateQuestion(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{name: "ok", body: map[string]any{"text": "Listens", "categoryId": 1}, wantCode: http.StatusCreated},
		{name: "unknown category", body: map[string]any{"text": "Listens", "categoryId": 99}, wantCode: http.StatusBadRequest, wantErr: "invalid_reference"},
		{name: "missing category", body: map[string]any{"text": "Listens"}, wantCode: http.StatusBadRequest, wantErr: "validation_error"},
		{name: "blank text", body: map[string]any{"text": "  ", "categoryId": 1}, wantCode: http.StatusBadRequest, wantErr: "validation_error"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(newFakeCatalog(), auth.NewRolePermissionStore())
			rec := testkit.Do(t, testkit.Router(h, &testkit.Admin), http.MethodPost, "/questions", tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d (%s)", tc.wantCode, rec.Code, rec.Body.String())
			}
			if got := testkit.ErrorCode(t, rec); got != tc.wantErr {
				t.Fatalf("expected error %q, got %q", tc.wantErr, got)
			}
		})
	}
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	h := NewHandler(newFakeCatalog(), auth.NewRolePermissionStore())
	router := testkit.Router(h, &testkit.Employee)

	if rec := testkit.Do(t, router, http.MethodPost, "/categories", map[string]string{"name": "New"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := testkit.Do(t, router, http.MethodGet, "/questions/category/1", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected employees to read questions, got %d", rec.Code)
	}
	if rec := testkit.Do(t, router, http.MethodGet, "/questions/category/7", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", rec.Code)
	}
}

func TestUpdateCategoryDuplicateName(t *testing.T) {
	h := NewHandler(newFakeCatalog(), auth.NewRolePermissionStore())
	router := testkit.Router(h, &testkit.Admin)
	rec := testkit.Do(t, router, http.MethodPost, "/categories", map[string]string{"name": "Leadership"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	rec = testkit.Do(t, router, http.MethodPut, "/categories/2", map[string]string{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rec.Code)
	}
}
