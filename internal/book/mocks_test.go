package book

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bookcatalog/internal/platform/openlibrary"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, q Query) ([]Book, error) {
	args := m.Called(ctx, q)
	books, _ := args.Get(0).([]Book)
	return books, args.Error(1)
}

func (m *mockRepository) Popular(ctx context.Context, limit int) ([]Book, error) {
	args := m.Called(ctx, limit)
	books, _ := args.Get(0).([]Book)
	return books, args.Error(1)
}

type mockOpenLibrary struct {
	mock.Mock
}

func (m *mockOpenLibrary) Subject(ctx context.Context, subject string, limit int) (*openlibrary.WorkList, error) {
	args := m.Called(ctx, subject, limit)
	list, _ := args.Get(0).(*openlibrary.WorkList)
	return list, args.Error(1)
}

func (m *mockOpenLibrary) Trending(ctx context.Context, window string) (*openlibrary.WorkList, error) {
	args := m.Called(ctx, window)
	list, _ := args.Get(0).(*openlibrary.WorkList)
	return list, args.Error(1)
}

func (m *mockOpenLibrary) EditionByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error) {
	args := m.Called(ctx, isbn)
	ed, _ := args.Get(0).(*openlibrary.Edition)
	return ed, args.Error(1)
}

func (m *mockOpenLibrary) Work(ctx context.Context, key string) (*openlibrary.Work, error) {
	args := m.Called(ctx, key)
	w, _ := args.Get(0).(*openlibrary.Work)
	return w, args.Error(1)
}

func (m *mockOpenLibrary) Cover(ctx context.Context, isbn, size string) (*openlibrary.Cover, error) {
	args := m.Called(ctx, isbn, size)
	c, _ := args.Get(0).(*openlibrary.Cover)
	return c, args.Error(1)
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) TopBookTitles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	titles, _ := args.Get(0).([]string)
	return titles, args.Error(1)
}

func workList(titles ...string) *openlibrary.WorkList {
	l := &openlibrary.WorkList{}
	for _, t := range titles {
		l.Works = append(l.Works, openlibrary.WorkRef{Title: t})
	}
	return l
}

func edition(keys ...string) *openlibrary.Edition {
	ed := &openlibrary.Edition{}
	for _, k := range keys {
		ed.Works = append(ed.Works, struct {
			Key string `json:"key"`
		}{Key: k})
	}
	return ed
}
