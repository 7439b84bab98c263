package resolve

import (
	"testing"

	"github.com/syssam/lingua"
	"github.com/syssam/lingua/dialect/sql"
)

func BenchmarkApplyStrict(b *testing.B) {
	q := productQuery(lingua.Strict, "de")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := baseSelector().Where(sql.EQ("id", 1))
		Apply(s, q)
		s.Query()
	}
}

func BenchmarkApplyFallback(b *testing.B) {
	q := productQuery(lingua.Fallback, "de")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := baseSelector().Where(sql.And(sql.EQ("id", 1), sql.Like("name", "%x%")))
		Apply(s, q)
		s.Query()
	}
}
