package produce

import (
	"context"
	"strings"

	"stocksync/internal/core/apperror"
	"stocksync/pkg/logger"
)

// resolveArticle ensures the produced package exists in the catalog and
// returns its code in the fixed CHAR(16) form.
//
// Lookup is by display name: code normalization can collide, the name
// carries the unique constraint. When the article is absent on a normal
// order a new code is allocated and the article inserted; sell-price
// fields stay unset, a separate pricing process fills them in. On a
// reversal the article must pre-exist.
//
// An insert racing a concurrent insert of the same name is the one
// expected, swallowed conflict: the duplicate is caught and the article
// re-read by name.
func (s *Service) resolveArticle(ctx context.Context, order *Order) (string, error) {
	article, err := s.repo.FindArticleByName(ctx, order.Name)
	if err != nil {
		return "", err
	}
	if article != nil {
		return storedCode(article.Code), nil
	}

	if order.IsReversal() {
		return "", apperror.NewMissingArticle(order.Name)
	}

	next, err := s.repo.NextArticleCode(ctx)
	if err != nil {
		return "", err
	}
	code := FormatArticleCode(next)

	newArticle := &Article{
		Code:     code,
		Name:     order.Name,
		Unit:     ArticleUnit,
		VATRate:  order.VATRate,
		TypeName: ArticleTypeName,
		TypeCode: ArticleTypeCode,
	}

	if err := s.repo.InsertArticle(ctx, newArticle); err != nil {
		if !apperror.IsDuplicate(err) {
			return "", err
		}

		// Another transaction inserted between MAX+1 and INSERT.
		logger.Debug(ctx, "article insert lost race, re-reading by name", "name", order.Name)
		again, rerr := s.repo.FindArticleByName(ctx, order.Name)
		if rerr != nil {
			return "", rerr
		}
		if again != nil {
			return storedCode(again.Code), nil
		}
		return "", err
	}

	return code, nil
}

// storedCode re-applies the fixed CHAR(16) width to a code read back
// from storage, where drivers may or may not strip trailing spaces.
func storedCode(code string) string {
	if len(code) >= codeWidth {
		return code[:codeWidth]
	}
	trimmed := TrimArticleCode(code)
	return trimmed + strings.Repeat(" ", codeWidth-len(trimmed))
}
