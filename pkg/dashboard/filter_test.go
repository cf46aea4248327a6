package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icuboard/icuboard/pkg/mockdata"
)

func TestParseWhereArgs(t *testing.T) {
	t.Run("valid pairs", func(t *testing.T) {
		where, warnings, err := ParseWhereArgs([]string{"status=ocupado", " type = cirurgico ", ""})
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, map[string]string{"status": "ocupado", "type": "cirurgico"}, where)
	})

	t.Run("duplicate key warns", func(t *testing.T) {
		where, warnings, err := ParseWhereArgs([]string{"status=ocupado", "status=alta"})
		require.NoError(t, err)
		assert.Equal(t, "alta", where["status"])
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "last value wins")
	})

	t.Run("missing separator", func(t *testing.T) {
		_, _, err := ParseWhereArgs([]string{"status"})
		assert.ErrorContains(t, err, "expected key=value")
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := ParseWhereArgs([]string{"=ocupado"})
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, _, err := ParseWhereArgs([]string{"ward=b"})
		assert.ErrorContains(t, err, "unknown filter field")
	})
}

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, "", BuildFilter(nil))
	assert.Equal(t,
		`status == "ocupado" and type == "cirurgico"`,
		BuildFilter(map[string]string{"type": "cirurgico", "status": "ocupado"}),
	)
	assert.Equal(t, `specialty == "say \"hi\""`, BuildFilter(map[string]string{"specialty": `say "hi"`}))
}

func TestCombineFilters(t *testing.T) {
	assert.Equal(t, "", CombineFilters("", " "))
	assert.Equal(t, `a == "1"`, CombineFilters(`a == "1"`, ""))
	assert.Equal(t, `(a == "1") and (b == "2" or c == "3")`, CombineFilters(`a == "1"`, `b == "2" or c == "3"`))
}

func TestFilterCache_Apply(t *testing.T) {
	cache, err := newFilterCache(4)
	require.NoError(t, err)
	beds := mockdata.DefaultBeds()

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "empty matches all", expr: "", want: []string{"UTI-01", "UTI-02", "UTI-03", "UTI-04", "UTI-05", "UTI-06", "UTI-07", "UTI-08", "UTI-09", "UTI-10"}},
		{name: "transfer flag", expr: `transfer == "true"`, want: []string{"UTI-03", "UTI-09"}},
		{name: "surgical without reservation", expr: `type == "cirurgico" and reserved == "false"`, want: nil},
		{name: "specialty match", expr: `specialty == "Trauma" or next_specialty == "Nefrologia"`, want: []string{"UTI-01", "UTI-09"}},
		{name: "negation", expr: `status != "ocupado" and status != "disponivel"`, want: []string{"UTI-05", "UTI-08", "UTI-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cache.apply(tt.expr, beds)
			require.NoError(t, err)
			var numbers []string
			for _, b := range got {
				numbers = append(numbers, b.Number)
			}
			assert.Equal(t, tt.want, numbers)
		})
	}
}

func TestFilterCache_InvalidExpression(t *testing.T) {
	cache, err := newFilterCache(1)
	require.NoError(t, err)

	_, err = cache.apply(`status ==`, mockdata.DefaultBeds())
	assert.ErrorContains(t, err, "invalid filter")
	assert.Zero(t, cache.evaluators.Len())
}

func TestFilterCache_ReusesEvaluators(t *testing.T) {
	cache, err := newFilterCache(2)
	require.NoError(t, err)

	first, err := cache.compile(`status == "alta"`)
	require.NoError(t, err)
	second, err := cache.compile(`status == "alta"`)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
