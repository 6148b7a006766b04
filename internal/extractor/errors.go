// Package extractor converts RawBlobs sitting in the Object Store into
// canonical domain.Article rows: one pipeline for PDF pages,
// one for HTML pages, sharing normalization, dedup, and ordering rules.
package extractor

import (
	"errors"

	"github.com/crb2nu/news-analyzer/internal/apperr"
)

var (
	ErrUnsupportedSourceType = errors.New("extractor: unsupported source type")
	ErrEmptyBlob             = errors.New("extractor: blob produced no extractable content")
)

func dataError(op string, err error) error {
	return apperr.New(apperr.KindDataError, op, err)
}

func invalidInput(op string, err error) error {
	return apperr.New(apperr.KindInvalidInput, op, err)
}
