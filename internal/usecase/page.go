package usecase

import (
	"fmt"
	"math"

	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

const MaxPageSize = 100

// 一覧レスポンス（pageは1始まり）
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	Page          int   `json:"page"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](content []T, total int64, q repo.PageQuery) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Page[T]{Content: content, TotalElements: total, Page: q.Page, TotalPages: pages}
}

// checkPageはpage>=1, 1<=limit<=100。offsetがintに収まらないpageも弾く
func checkPage(page, limit int) (repo.PageQuery, error) {
	v := validator.New()
	v.Check(page >= 1, "page", "must be greater than or equal to 1")
	v.Between("limit", int64(limit), 1, MaxPageSize)
	if v.Empty() {
		maxPage := math.MaxInt / limit
		v.Check(page <= maxPage, "page", fmt.Sprintf("must be less than or equal to %d", maxPage))
	}
	if !v.Empty() {
		return repo.PageQuery{}, NewValidation(v)
	}
	return repo.PageQuery{Page: page, Limit: limit}, nil
}

func mapSlice[S, T any](in []S, f func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, s := range in {
		out = append(out, f(s))
	}
	return out
}
