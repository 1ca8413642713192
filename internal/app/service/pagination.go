package service

import "errors"

var ErrInvalidPagination = errors.New("limit and offset must not be negative")

// PageLimits 分頁上下限
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits is used when no configuration is supplied.
var DefaultPageLimits = PageLimits{Default: 20, Max: 100}

// Limit resolves a requested page size: 0 means default, larger values are capped.
func (p PageLimits) Limit(limit int) (int, error) {
	if limit < 0 {
		return 0, ErrInvalidPagination
	}
	if limit == 0 {
		return p.Default, nil
	}
	if limit > p.Max {
		return p.Max, nil
	}
	return limit, nil
}

func (p PageLimits) Page(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, ErrInvalidPagination
	}
	limit, err := p.Limit(limit)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func (p PageLimits) orDefault() PageLimits {
	if p.Default <= 0 || p.Max < p.Default {
		return DefaultPageLimits
	}
	return p
}
