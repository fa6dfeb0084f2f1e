package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
)

func result(engine domain.EngineName, lines ...domain.OcrLine) domain.RawOcrResult {
	return domain.RawOcrResult{Engine: engine, Lines: lines}
}

func text(s string, conf float64) domain.OcrLine {
	return domain.OcrLine{Text: s, Confidence: conf}
}

func TestFields_FullCard(t *testing.T) {
	res := result(domain.EngineTesseract,
		text("بطاقة تحقيق الشخصية", 0.61),
		text("محمود", 0.93),
		text("احمد عبدالله حسن", 0.90),
		text("ابوخليفه مركز القنطره غرب ك ١٤", 0.82),
		text("١٨٥٠٧١٥٢١٠٣٤٥٧", 0.88),
	)

	fields := Fields(res)

	require.Contains(t, fields, domain.FieldID)
	assert.Equal(t, "18507152103457", fields[domain.FieldID].Value)
	assert.Equal(t, domain.EngineTesseract, fields[domain.FieldID].Engine)

	require.Contains(t, fields, domain.FieldFirstName)
	assert.Equal(t, "محمود", fields[domain.FieldFirstName].Value)

	require.Contains(t, fields, domain.FieldSecondName)
	assert.Equal(t, "احمد عبدالله حسن", fields[domain.FieldSecondName].Value)

	require.Contains(t, fields, domain.FieldAddress)
	assert.Equal(t, "ابوخليفه مركز القنطره غرب ك 14", fields[domain.FieldAddress].Value)
}

func TestFields_IDSelection(t *testing.T) {
	t.Run("valid reading beats longer noise", func(t *testing.T) {
		res := result(domain.EngineEasyOCR,
			text("185071521034570021", 0.95), // 18 digits, over-read
			text("18507152103457", 0.70),
		)
		fields := Fields(res)
		require.Contains(t, fields, domain.FieldID)
		assert.Equal(t, "18507152103457", fields[domain.FieldID].Value)
	})

	t.Run("partial reading is kept", func(t *testing.T) {
		res := result(domain.EngineEasyOCR,
			text("1850715210", 0.66),
		)
		fields := Fields(res)
		require.Contains(t, fields, domain.FieldID)
		assert.Equal(t, "1850715210", fields[domain.FieldID].Value)
	})

	t.Run("short digit runs are noise", func(t *testing.T) {
		res := result(domain.EngineEasyOCR,
			text("123456789", 0.99),
		)
		fields := Fields(res)
		assert.NotContains(t, fields, domain.FieldID)
	})

	t.Run("confidence breaks equal-length ties", func(t *testing.T) {
		res := result(domain.EngineEasyOCR,
			text("18507152103450", 0.60),
			text("18507152103457", 0.90),
		)
		fields := Fields(res)
		require.Contains(t, fields, domain.FieldID)
		assert.Equal(t, "18507152103457", fields[domain.FieldID].Value)
	})
}

func TestFields_Names(t *testing.T) {
	t.Run("digit lines are never names", func(t *testing.T) {
		res := result(domain.EngineTesseract,
			text("١٨٥٠٧١٥٢١٠٣٤٥٧", 0.88),
			text("سارة", 0.91),
			text("خالد محمد", 0.89),
		)
		fields := Fields(res)
		assert.Equal(t, "سارة", fields[domain.FieldFirstName].Value)
		assert.Equal(t, "خالد محمد", fields[domain.FieldSecondName].Value)
	})

	t.Run("marker lines are never names", func(t *testing.T) {
		res := result(domain.EngineTesseract,
			text("الهرم ق 5", 0.80),
			text("منى", 0.92),
		)
		fields := Fields(res)
		require.Contains(t, fields, domain.FieldFirstName)
		assert.Equal(t, "منى", fields[domain.FieldFirstName].Value)
		assert.NotContains(t, fields, domain.FieldSecondName)
	})

	t.Run("names are stripped to letters", func(t *testing.T) {
		res := result(domain.EngineTesseract,
			text("محمود -", 0.9),
		)
		fields := Fields(res)
		assert.Equal(t, "محمود", fields[domain.FieldFirstName].Value)
	})
}

func TestFields_Address(t *testing.T) {
	t.Run("marker line wins over longer plain line", func(t *testing.T) {
		res := result(domain.EngineTesseract,
			text("على", 0.9),
			text("حسن ابراهيم", 0.9),
			text("شارع الجمهورية المتفرع من الميدان الكبير", 0.8),
			text("المنصوره ق 2", 0.85),
		)
		fields := Fields(res)
		require.Contains(t, fields, domain.FieldAddress)
		assert.Equal(t, "المنصوره ق 2", fields[domain.FieldAddress].Value)
	})

	t.Run("falls back to longest line after the names", func(t *testing.T) {
		res := result(domain.EngineTesseract,
			text("على", 0.9),
			text("حسن ابراهيم", 0.9),
			text("شارع الجمهورية بندر دمياط", 0.8),
		)
		fields := Fields(res)
		require.Contains(t, fields, domain.FieldAddress)
		assert.Equal(t, "شارع الجمهورية بندر دمياط", fields[domain.FieldAddress].Value)
	})

	t.Run("absent address stays absent", func(t *testing.T) {
		res := result(domain.EngineTesseract,
			text("على", 0.9),
			text("حسن ابراهيم", 0.9),
		)
		fields := Fields(res)
		assert.NotContains(t, fields, domain.FieldAddress)
	})
}

func TestFields_EmptyResult(t *testing.T) {
	fields := Fields(result(domain.EngineTesseract))
	assert.Empty(t, fields)
}

func TestDedupeWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"repeated locality keeps last", "ابوخليفه م 26 ابوخليفه", "م 26 ابوخليفه"},
		{"digits always kept", "شارع 5 شارع 5", "5 شارع 5"},
		{"no duplicates untouched", "ابوخليفه مركز القنطره", "ابوخليفه مركز القنطره"},
		{"single word", "القاهره", "القاهره"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeWords(tt.in))
		})
	}
}
