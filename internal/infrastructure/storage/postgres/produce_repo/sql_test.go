package produce_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_Complete(t *testing.T) {
	stmts := Statements()

	wantNames := []string{
		"select_document_by_iddoc_date",
		"select_article_by_name",
		"select_max_article_code8",
		"insert_article",
		"select_max_movement_id",
		"select_max_nr_doc_by_date",
		"select_max_line_ordinal",
		"insert_movement",
		"insert_movement_full",
		"insert_consumption_detail",
		"select_max_production_seq",
		"insert_production_detail",
	}
	require.Len(t, stmts, len(wantNames))
	for _, name := range wantNames {
		assert.NotEmpty(t, stmts[name], "statement %q missing", name)
	}
}

func TestStatements_Placeholders(t *testing.T) {
	for name, sql := range Statements() {
		assert.NotContains(t, sql, "?", "statement %q must use numbered placeholders", name)
	}
}

func TestMovementInsertSQL_Variants(t *testing.T) {
	base := movementInsertSQL(false, false)
	assert.Contains(t, base, "INSERT INTO miscari")
	assert.NotContains(t, base, "pret")
	assert.NotContains(t, base, "nr_ordine")
	assert.Equal(t, 8, strings.Count(base, "$"))

	withPrice := movementInsertSQL(true, false)
	assert.Contains(t, withPrice, "pret")
	assert.NotContains(t, withPrice, "nr_ordine")
	assert.Equal(t, 9, strings.Count(withPrice, "$"))

	full := movementInsertSQL(true, true)
	assert.Contains(t, full, "pret")
	assert.Contains(t, full, "nr_ordine")
	assert.Equal(t, 10, strings.Count(full, "$"))
}

func TestMovementInsertSQL_ColumnOrder(t *testing.T) {
	full := movementInsertSQL(true, true)
	// The fixed columns keep their order; optional ones append at the end.
	pretIdx := strings.Index(full, "pret")
	ordIdx := strings.Index(full, "nr_ordine")
	gesIdx := strings.Index(full, "gestiune")
	assert.Greater(t, pretIdx, gesIdx)
	assert.Greater(t, ordIdx, pretIdx)
}
