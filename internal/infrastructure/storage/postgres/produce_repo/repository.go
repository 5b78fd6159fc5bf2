// Package produce_repo is the PostgreSQL implementation of the
// production engine's storage contract.
package produce_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocksync/internal/core/apperror"
	"stocksync/internal/domain/produce"
	"stocksync/internal/infrastructure/storage/postgres"
)

// Compile-time check against the domain contract.
var _ produce.Repository = (*Repository)(nil)

// Repository executes the engine's statements against the active
// transaction in context.
type Repository struct {
	txm   *postgres.TxManager
	probe *postgres.SchemaProbe
}

// New creates the repository.
func New(txm *postgres.TxManager, probe *postgres.SchemaProbe) *Repository {
	return &Repository{txm: txm, probe: probe}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *Repository) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Capabilities reports the probed optional schema parts.
func (r *Repository) Capabilities(ctx context.Context) (produce.Capabilities, error) {
	caps, err := r.probe.Capabilities(ctx)
	if err != nil {
		return produce.Capabilities{}, apperror.NewDatabase(err)
	}
	return produce.Capabilities{
		MovementPrice:    caps.MovementPrice,
		MovementOrdinal:  caps.MovementOrdinal,
		ProductionDetail: caps.ProductionDetail,
	}, nil
}

// FindDocument returns the production line for (external id, date), or
// nil when the document has not been materialized yet.
func (r *Repository) FindDocument(ctx context.Context, externalID int64, date time.Time) (*produce.ExistingDocument, error) {
	q := r.txm.GetQuerier(ctx)

	var row struct {
		ID     int64  `db:"id"`
		NrDoc  int64  `db:"nr_doc"`
		CodArt string `db:"cod_art"`
	}
	err := pgxscan.Get(ctx, q, &row, sqlSelectDocumentByIDDocDate, externalID, date, produce.KindProduction)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewDatabase(fmt.Errorf("find document: %w", err))
	}

	return &produce.ExistingDocument{
		MovementID:  row.ID,
		DocNumber:   row.NrDoc,
		ArticleCode: row.CodArt,
	}, nil
}

// FindArticleByName looks a catalog article up by trimmed display name.
func (r *Repository) FindArticleByName(ctx context.Context, name string) (*produce.Article, error) {
	q := r.txm.GetQuerier(ctx)

	var row struct {
		Cod      string `db:"cod"`
		Denumire string `db:"denumire"`
		Um       string `db:"um"`
	}
	err := pgxscan.Get(ctx, q, &row, sqlSelectArticleByName, name)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewDatabase(fmt.Errorf("find article by name: %w", err))
	}

	return &produce.Article{
		Code: row.Cod,
		Name: row.Denumire,
		Unit: row.Um,
	}, nil
}

// NextArticleCode allocates the next 8-digit article code.
func (r *Repository) NextArticleCode(ctx context.Context) (int64, error) {
	return r.nextFromMax(ctx, sqlSelectMaxArticleCode8)
}

// InsertArticle writes a new catalog article inside a savepoint, so a
// lost race on the display name aborts only the insert and leaves the
// surrounding transaction usable for the recovery read.
func (r *Repository) InsertArticle(ctx context.Context, article *produce.Article) error {
	err := r.txm.RunInTransactionWithOptions(ctx, postgres.SavepointTxOptions(), func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)
		_, err := q.Exec(ctx, sqlInsertArticle,
			article.Code,
			article.Name,
			article.Unit,
			article.VATRate,
			article.TypeName,
			article.TypeCode,
		)
		return err
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("article", "denumire", article.Name).WithCause(err)
		}
		return apperror.NewDatabase(fmt.Errorf("insert article: %w", err))
	}
	return nil
}

// NextMovementID allocates the next movement document id.
func (r *Repository) NextMovementID(ctx context.Context) (int64, error) {
	return r.nextFromMax(ctx, sqlSelectMaxMovementID)
}

// NextDocNumber allocates the next document number for date and the
// production kind.
func (r *Repository) NextDocNumber(ctx context.Context, date time.Time) (int64, error) {
	q := r.txm.GetQuerier(ctx)

	var max int64
	if err := q.QueryRow(ctx, sqlSelectMaxDocNumberByDate, date, produce.KindProduction).Scan(&max); err != nil {
		return 0, apperror.NewDatabase(fmt.Errorf("next doc number: %w", err))
	}
	return max + 1, nil
}

// NextLineOrdinal allocates the next per-row movement ordinal.
func (r *Repository) NextLineOrdinal(ctx context.Context) (int64, error) {
	return r.nextFromMax(ctx, sqlSelectMaxLineOrdinal)
}

// InsertMovement writes one movement line, with the optional pret and
// nr_ordine columns only when the schema carries them. A unique
// violation here means the allocated document number lost a race.
func (r *Repository) InsertMovement(ctx context.Context, line *produce.MovementLine, caps produce.Capabilities) error {
	q := r.txm.GetQuerier(ctx)

	cols := []string{"id", "id_doc", "data", "nr_doc", "tip_doc", "cod_art", "cantitate", "gestiune"}
	vals := []any{line.MovementID, line.ExternalID, line.Date, line.DocNumber, line.Kind, line.ArticleCode, line.Quantity, line.Warehouse}
	if caps.MovementPrice {
		cols = append(cols, "pret")
		vals = append(vals, line.Price)
	}
	if caps.MovementOrdinal {
		cols = append(cols, "nr_ordine")
		vals = append(vals, line.Ordinal)
	}
	builder := r.Builder().Insert("miscari").Columns(cols...).Values(vals...)

	sql, args, err := builder.ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build movement insert: %w", err))
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewSequenceConflict(err).
				WithDetail("nr_doc", line.DocNumber).
				WithDetail("constraint", postgres.ConstraintName(err))
		}
		return apperror.NewDatabase(fmt.Errorf("insert movement: %w", err))
	}
	return nil
}

// InsertConsumptionDetail writes one bonuri_consum row.
func (r *Repository) InsertConsumptionDetail(ctx context.Context, detail *produce.ConsumptionDetail) error {
	q := r.txm.GetQuerier(ctx)

	_, err := q.Exec(ctx, sqlInsertConsumptionDetail,
		detail.UniqueID,
		detail.MovementID,
		detail.ArticleCode,
		detail.Quantity,
		detail.Value,
	)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert consumption detail: %w", err))
	}
	return nil
}

// NextProductionSeq allocates the next bonuri_productie sequence.
func (r *Repository) NextProductionSeq(ctx context.Context) (int64, error) {
	return r.nextFromMax(ctx, sqlSelectMaxProductionSeq)
}

// InsertProductionDetail writes the bonuri_productie row.
func (r *Repository) InsertProductionDetail(ctx context.Context, detail *produce.ProductionDetail) error {
	q := r.txm.GetQuerier(ctx)

	_, err := q.Exec(ctx, sqlInsertProductionDetail,
		detail.UniqueID,
		detail.MovementID,
		detail.DocSeq,
		detail.Validated,
		detail.Warehouse,
		detail.TypeName,
		detail.TypeCode,
		detail.Price,
		detail.Value,
		detail.Cost,
	)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert production detail: %w", err))
	}
	return nil
}

// nextFromMax runs a COALESCE(MAX(...), 0) statement and returns the
// value plus one.
func (r *Repository) nextFromMax(ctx context.Context, sql string) (int64, error) {
	q := r.txm.GetQuerier(ctx)

	var max int64
	if err := q.QueryRow(ctx, sql).Scan(&max); err != nil {
		return 0, apperror.NewDatabase(fmt.Errorf("allocate from max: %w", err))
	}
	return max + 1, nil
}

// movementInsertSQL renders the movement insert template with the
// optional columns toggled.
func movementInsertSQL(withPrice, withOrdinal bool) string {
	cols := []string{"id", "id_doc", "data", "nr_doc", "tip_doc", "cod_art", "cantitate", "gestiune"}
	if withPrice {
		cols = append(cols, "pret")
	}
	if withOrdinal {
		cols = append(cols, "nr_ordine")
	}
	vals := make([]any, len(cols))
	for i := range vals {
		vals[i] = nil
	}

	sql, _, _ := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Insert("miscari").
		Columns(cols...).
		Values(vals...).
		ToSql()
	return sql
}
