package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/refdata"
)

func TestSelectCatalogEntry_MonolithicNumericThickness(t *testing.T) {
	entry, count, err := SelectCatalogEntry(glassCatalog(), CatalogQuery{
		Provider: "cristalería norte", Family: "templado", Thickness: "8mm", Color: "incoloro",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", entry.ID)
	// "Extraclaro incoloro" also contains "incoloro"
	assert.Equal(t, 2, count)
}

func TestSelectCatalogEntry_LaminatedExactNotation(t *testing.T) {
	entry, _, err := SelectCatalogEntry(glassCatalog(), CatalogQuery{
		Provider: "Cristalería Norte", Family: "Laminado", Thickness: "4+4", Color: "incol",
	})
	require.NoError(t, err)
	assert.Equal(t, "c2", entry.ID)

	_, _, err = SelectCatalogEntry(glassCatalog(), CatalogQuery{
		Provider: "Cristalería Norte", Family: "Laminado", Thickness: "8", Color: "incoloro",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectCatalogEntry_TypeHintNarrows(t *testing.T) {
	entry, count, err := SelectCatalogEntry(glassCatalog(), CatalogQuery{
		Provider: "Cristalería Norte", Family: "Templado", Thickness: "8", Color: "incoloro", TypeHint: "extraclaro",
	})
	require.NoError(t, err)
	assert.Equal(t, "c4", entry.ID)
	assert.Equal(t, 1, count)
}

func TestSelectCatalogEntry_SkipsInactive(t *testing.T) {
	_, _, err := SelectCatalogEntry(glassCatalog(), CatalogQuery{
		Provider: "Cristalería Norte", Family: "Templado", Thickness: "10", Color: "bronce",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCatalogEntry_NotFoundHasNoPartialEntry(t *testing.T) {
	eng := NewEngine(glassReader(), zap.NewNop(), Options{})
	q := CatalogQuery{Provider: "Inexistente", Family: "Templado", Thickness: "8", Color: "incoloro"}

	entry, err := eng.ResolveCatalogEntry(context.Background(), q)

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, refdata.CatalogEntry{}, entry)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, nf.Error(), `provider="Inexistente"`)
	assert.Contains(t, nf.Error(), `thickness="8"`)
}

func TestResolveCatalogEntry_DependencyError(t *testing.T) {
	boom := errors.New("connection reset")
	eng := NewEngine(&refdata.Memory{Err: boom}, zap.NewNop(), Options{})

	_, err := eng.ResolveCatalogEntry(context.Background(), CatalogQuery{Provider: "x", Family: "y", Thickness: "4", Color: "z"})

	assert.ErrorIs(t, err, ErrDependency)
	assert.ErrorIs(t, err, boom)
}

func TestResolveCatalogEntry_MultipleMatchesDiagnostic(t *testing.T) {
	obs := &recordingObserver{}
	q := CatalogQuery{Provider: "Cristalería Norte", Family: "Templado", Thickness: "8", Color: "incoloro"}

	strict := NewEngine(glassReader(), zap.NewNop(), Options{StrictCatalog: true, Observer: obs})
	entry, err := strict.ResolveCatalogEntry(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "c1", entry.ID)
	assert.Equal(t, []int{2}, obs.matches)

	relaxed := NewEngine(glassReader(), zap.NewNop(), Options{Observer: obs})
	_, err = relaxed.ResolveCatalogEntry(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, obs.matches, 1)
}
