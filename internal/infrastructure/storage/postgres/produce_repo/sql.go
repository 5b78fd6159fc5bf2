package produce_repo

// SQL templates executed by the production engine. Statements returns
// them for inspection and testing without a live database; the
// repository executes exactly these strings (the movement insert picks
// the variant matching the probed schema).
const (
	sqlSelectDocumentByIDDocDate = `
SELECT id, nr_doc, cod_art
FROM miscari
WHERE id_doc = $1
  AND data = $2
  AND tip_doc = $3
ORDER BY id
LIMIT 1`

	sqlSelectArticleByName = `
SELECT cod, denumire, um
FROM articole
WHERE TRIM(denumire) = TRIM($1)
ORDER BY cod
LIMIT 1`

	sqlSelectMaxArticleCode8 = `
SELECT COALESCE(MAX(CAST(SUBSTRING(TRIM(cod) FROM 1 FOR 8) AS INTEGER)), 0)
FROM articole
WHERE CHAR_LENGTH(TRIM(cod)) >= 8
  AND SUBSTRING(TRIM(cod) FROM 1 FOR 8) ~ '^[0-9]{8}$'`

	sqlInsertArticle = `
INSERT INTO articole (cod, denumire, um, tva, den_tip, tip)
VALUES ($1, $2, $3, $4, $5, $6)`

	sqlSelectMaxMovementID = `
SELECT COALESCE(MAX(id), 0)
FROM miscari`

	sqlSelectMaxDocNumberByDate = `
SELECT COALESCE(MAX(nr_doc), 0)
FROM miscari
WHERE data = $1
  AND tip_doc = $2`

	sqlSelectMaxLineOrdinal = `
SELECT COALESCE(MAX(nr_ordine), 0)
FROM miscari`

	sqlInsertMovement = `
INSERT INTO miscari (id, id_doc, data, nr_doc, tip_doc, cod_art, cantitate, gestiune)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	sqlInsertConsumptionDetail = `
INSERT INTO bonuri_consum (id_unic, id_miscare, cod_art, cantitate, valoare)
VALUES ($1, $2, $3, $4, $5)`

	sqlSelectMaxProductionSeq = `
SELECT COALESCE(MAX(nr_ordine), 0)
FROM bonuri_productie`

	sqlInsertProductionDetail = `
INSERT INTO bonuri_productie (id_unic, id_miscare, nr_ordine, validat, gestiune, den_tip, tip, pret, valoare, cost)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
)

// Statements returns every SQL template the engine may execute, keyed
// by a stable name. The movement insert gains pret and nr_ordine
// columns when the schema carries them; both variants are listed.
func Statements() map[string]string {
	return map[string]string{
		"select_document_by_iddoc_date": sqlSelectDocumentByIDDocDate,
		"select_article_by_name":        sqlSelectArticleByName,
		"select_max_article_code8":      sqlSelectMaxArticleCode8,
		"insert_article":                sqlInsertArticle,
		"select_max_movement_id":        sqlSelectMaxMovementID,
		"select_max_nr_doc_by_date":     sqlSelectMaxDocNumberByDate,
		"select_max_line_ordinal":       sqlSelectMaxLineOrdinal,
		"insert_movement":               sqlInsertMovement,
		"insert_movement_full":          movementInsertSQL(true, true),
		"insert_consumption_detail":     sqlInsertConsumptionDetail,
		"select_max_production_seq":     sqlSelectMaxProductionSeq,
		"insert_production_detail":      sqlInsertProductionDetail,
	}
}
